package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/aidocs/pkg/config"
	"github.com/matzehuels/aidocs/pkg/errors"
	"github.com/matzehuels/aidocs/pkg/lockfile"
	"github.com/matzehuels/aidocs/pkg/status"
)

// statusCommand creates the status command.
func (c *CLI) statusCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show how the cached docs compare with Cargo.lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.runStatus(format)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text or json")
	return cmd
}

// checkCommand creates the check command: status with a failing exit code.
func (c *CLI) checkCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Like status, but exit non-zero when anything is missing, outdated or corrupted",
		Long: `Like status, but exit non-zero when anything is missing, outdated or
corrupted. Intended for CI:

  aidocs check --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := c.runStatus(format)
			if err != nil {
				return err
			}
			if summary.HasIssues() {
				return errIssues
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text or json")
	return cmd
}

func (c *CLI) runStatus(format string) (status.Summary, error) {
	if err := validateFormat(format); err != nil {
		return status.Summary{}, err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return status.Summary{}, err
	}
	versions, err := c.loadLock(cfg, true)
	if err != nil {
		return status.Summary{}, err
	}

	rows := status.Reconcile(cfg.Names(), versions, cfg.Settings.OutputDir)
	switch {
	case format == formatJSON:
		err = status.WriteJSON(c.Out, rows)
	case isTerminal(c.Out):
		printStatusTable(c.Out, rows)
	default:
		err = status.Write(c.Out, rows)
	}
	return status.Summarize(rows), err
}

// loadLock reads the lock file named in cfg. With tolerateMissing a missing
// file yields no versions, so every crate reports Missing.
func (c *CLI) loadLock(cfg *config.Config, tolerateMissing bool) (lockfile.Versions, error) {
	policy, err := lockfile.ParsePolicy(cfg.Settings.DuplicateVersions)
	if err != nil {
		return nil, err
	}
	versions, err := lockfile.Load(cfg.Settings.LockFile, policy)
	if tolerateMissing && errors.Is(err, errors.ErrCodeLockNotFound) {
		c.Logger.Warn("lock file not found", "path", cfg.Settings.LockFile)
		return lockfile.Versions{}, nil
	}
	return versions, err
}
