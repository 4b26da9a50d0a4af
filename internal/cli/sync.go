package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/aidocs/pkg/errors"
	"github.com/matzehuels/aidocs/pkg/sync"
)

type syncOpts struct {
	force   bool
	prune   bool
	refresh bool
}

// syncCommand creates the sync command.
func (c *CLI) syncCommand() *cobra.Command {
	var opts syncOpts

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch documentation for every configured crate at its locked version",
		Long: `Fetch documentation for every configured crate at its locked version.

For each crate in ai-docs.toml, the version from Cargo.lock is mapped to a git
tag (v{ver}, {ver}, {name}-v{ver}, {name}-{ver}); without a match the default
branch is used and the entry is marked as a fallback. Crates already cached at
the locked version are skipped unless --force is given or their config changed.

Set GITHUB_TOKEN (or GH_TOKEN) to raise the GitHub rate limit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSync(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "re-sync crates that are already cached")
	cmd.Flags().BoolVar(&opts.prune, "prune", false, "remove directories of versions no longer locked first")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore memoized tag lookups")

	return cmd
}

func (c *CLI) runSync(cmd *cobra.Command, opts syncOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, requests, err := c.newRunner(cfg, opts.refresh)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	report, err := runner.Run(cmd.Context(), sync.Options{Force: opts.force, Prune: opts.prune})
	if err != nil {
		return err
	}
	prog.done("Sync finished")
	c.Logger.Debug("http requests", "total", requests.Requests(), "failed", requests.Failures(), "throttled", requests.Throttled())

	c.printSyncReport(report)
	if report.Fatal() {
		return errSyncFailed
	}
	return nil
}

func (c *CLI) printSyncReport(r *sync.Report) {
	for _, dir := range r.Pruned {
		printFile(c.Out, "pruned "+dir)
	}
	for _, f := range r.Failures {
		printError(c.Out, "%s@%s: %s", f.Package, f.Version, errors.UserMessage(f.Err))
	}
	if r.RateLimited > 0 {
		printWarning(c.Out, "%d crate(s) hit the GitHub rate limit; %s", r.RateLimited, errors.RateLimitHint)
	}

	line := "Sync complete: %d synced, %d cached, %d skipped, %d errors"
	if r.Errors > 0 {
		printWarning(c.Out, line, r.Synced, r.Cached, r.Skipped, r.Errors)
		return
	}
	printSuccess(c.Out, line, r.Synced, r.Cached, r.Skipped, r.Errors)
}
