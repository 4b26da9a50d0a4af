package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/aidocs/pkg/config"
	"github.com/matzehuels/aidocs/pkg/errors"
	"github.com/matzehuels/aidocs/pkg/integrations/github"
	"github.com/matzehuels/aidocs/pkg/lockfile"
)

type initOpts struct {
	force bool
	all   bool
	lock  string
}

// initCommand creates the init command.
func (c *CLI) initCommand() *cobra.Command {
	var opts initOpts

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create ai-docs.toml from the crates in Cargo.lock",
		Long: `Create ai-docs.toml from the crates in Cargo.lock.

On a terminal you pick the crates to document; with --all (or when not
interactive) every locked crate is included. Each crate's repository is looked
up on crates.io: GitHub repositories become github sources, anything else a
docs-rs placeholder you can edit later.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInit(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "overwrite an existing config")
	cmd.Flags().BoolVar(&opts.all, "all", false, "include every locked crate without asking")
	cmd.Flags().StringVar(&opts.lock, "lock", "Cargo.lock", "lock file to read")

	return cmd
}

func (c *CLI) runInit(ctx context.Context, opts initOpts) error {
	if _, err := os.Stat(c.configPath); err == nil && !opts.force {
		return errors.New(errors.ErrCodeInvalidInput, "%s already exists; pass --force to overwrite", c.configPath)
	}

	versions, err := lockfile.Load(opts.lock, lockfile.KeepLast)
	if err != nil {
		return err
	}
	c.warnDuplicates(opts.lock)
	items := make([]PickerItem, 0, len(versions))
	for _, name := range versions.Names() {
		items = append(items, PickerItem{Name: name, Version: versions[name]})
	}

	selected := items
	if !opts.all && isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		if selected, err = pickPackages(items); err != nil {
			return err
		}
	}
	if len(selected) == 0 {
		printInfo(c.Out, "No crates selected, nothing written")
		return nil
	}

	cfg := config.Default()
	cfg.Settings.LockFile = opts.lock
	if err := c.lookupSources(ctx, cfg, selected); err != nil {
		return err
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.configPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", c.configPath, err)
	}

	printSuccess(c.Out, "Wrote %d crate(s)", len(selected))
	printFile(c.Out, c.configPath)
	printNextStep(c.Out, "Next", appName+" sync")
	return nil
}

// lookupSources adds one config entry per item, using crates.io metadata to
// find its GitHub repository.
func (c *CLI) lookupSources(ctx context.Context, cfg *config.Config, items []PickerItem) error {
	client := c.newCratesClient()

	spin := newSpinner(ctx, fmt.Sprintf("Looking up %d crate(s) on crates.io", len(items)))
	spin.Start()
	defer spin.Stop()

	var docsRs int
	for i, it := range items {
		spin.SetMessage(fmt.Sprintf("Looking up %s (%d/%d)", it.Name, i+1, len(items)))

		spec := config.PackageSpec{Name: it.Name}
		var repo string
		if err := errors.ValidateCratesPackageName(it.Name); err != nil {
			c.Logger.Debug("skipping crates.io lookup", "crate", it.Name, "err", err)
		} else if info, err := client.FetchCrate(ctx, it.Name, false); spin.Cancelled() {
			spin.StopWithError("Lookup cancelled")
			return ctx.Err()
		} else if err != nil {
			c.Logger.Debug("crates.io lookup failed", "crate", it.Name, "err", err)
		} else {
			repo, _ = github.ParseRepo(info.Repository)
		}

		if repo != "" {
			spec.Sources = []config.Source{config.GitHubSource{Repo: repo}}
		} else {
			spec.Sources = []config.Source{config.DocsRsSource{}}
			docsRs++
		}
		cfg.Crates[it.Name] = spec
	}

	spin.StopWithSuccess(fmt.Sprintf("Looked up %d crate(s)", len(items)))
	if docsRs > 0 {
		printWarning(c.Out, "%d crate(s) have no GitHub repository; edit their sources in %s", docsRs, c.configPath)
	}
	return nil
}

// warnDuplicates reports crates locked at more than one version; init keeps
// the last one, matching the default duplicate_versions policy.
func (c *CLI) warnDuplicates(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	dups, err := lockfile.Duplicates(data)
	if err != nil {
		return
	}
	for name, vs := range dups {
		c.Logger.Warn("crate locked at several versions, using the last", "crate", name, "versions", strings.Join(vs, ", "))
	}
}
