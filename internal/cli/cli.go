package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/aidocs/pkg/cache"
	"github.com/matzehuels/aidocs/pkg/config"
	aerrors "github.com/matzehuels/aidocs/pkg/errors"
	"github.com/matzehuels/aidocs/pkg/fetcher"
	"github.com/matzehuels/aidocs/pkg/integrations"
	"github.com/matzehuels/aidocs/pkg/integrations/crates"
	"github.com/matzehuels/aidocs/pkg/integrations/github"
	"github.com/matzehuels/aidocs/pkg/observability"
	"github.com/matzehuels/aidocs/pkg/resolver"
	"github.com/matzehuels/aidocs/pkg/store"
	"github.com/matzehuels/aidocs/pkg/sync"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "aidocs"

	// Subdirectories of the cache directory.
	refsCacheDir   = "refs"
	cratesCacheDir = "crates"

	// cratesCacheTTL is how long crates.io metadata lookups are reused.
	cratesCacheTTL = 24 * time.Hour

	// redisPingTimeout bounds the reachability check of the ref cache.
	redisPingTimeout = 2 * time.Second

	// cratesRPS follows the crates.io crawler policy of one request per second.
	cratesRPS = 1
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// errSyncFailed and errIssues make the process exit non-zero after the
// command has already reported what went wrong.
var (
	errSyncFailed = errors.New("sync failed: explicitly listed files are missing")
	errIssues     = errors.New("documentation is not in sync with the lock file")
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output. Logs go to the logger's writer.
	Out io.Writer

	configPath string
	logOut     io.Writer
	logFile    io.Closer

	// Overridden in tests.
	githubAPI string
	githubRaw string
	cratesAPI string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:     newLogger(w, level),
		Out:        os.Stdout,
		logOut:     w,
		configPath: config.DefaultPath,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Close releases the log file, if one was opened.
func (c *CLI) Close() error {
	if c.logFile == nil {
		return nil
	}
	return c.logFile.Close()
}

// =============================================================================
// Config
// =============================================================================

// loadConfig loads the config named by --config and attaches the log file
// it configures.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings {
		c.Logger.Warn(w, "config", c.configPath)
	}
	if cfg.Settings.LogFile != "" && c.logFile == nil {
		c.logFile = teeLogFile(c.Logger, c.logOut, cfg.Settings.LogFile)
	}
	return cfg, nil
}

// =============================================================================
// Pipeline Factory
// =============================================================================

// newRunner wires the sync pipeline for cfg.
func (c *CLI) newRunner(cfg *config.Config, refresh bool) (*sync.Runner, *observability.RequestCounter, error) {
	memo, err := c.newRefCache(cfg.Settings)
	if err != nil {
		return nil, nil, err
	}

	requests := &observability.RequestCounter{}
	observability.SetHTTPHooks(requests)

	gh := github.NewClient(config.Token(), integrations.WithRateLimit(cfg.Settings.RequestsPerSecond)).
		WithBaseURLs(c.githubAPI, c.githubRaw)
	keyer := cache.NewScopedKeyer(nil, gh.APIURL()+"|")

	return &sync.Runner{
		Config: cfg,
		Resolver: resolver.New(gh,
			resolver.WithCache(memo, keyer),
			resolver.WithRefresh(refresh),
			resolver.WithLogger(c.Logger)),
		Fetcher: fetcher.New(gh, fetcher.WithLogger(c.Logger)),
		Store:   store.New(cfg.Settings.OutputDir),
		Logger:  c.Logger,
	}, requests, nil
}

// newRefCache returns the tag memo backend selected by settings.ref_cache.
func (c *CLI) newRefCache(s config.Settings) (cache.Cache, error) {
	switch s.RefCache {
	case config.RefCacheNone:
		return cache.NewNullCache(), nil
	case config.RefCacheRedis:
		rc, err := cache.NewRedisCache(s.RedisURL, appName+":")
		if err != nil {
			return nil, aerrors.Wrap(aerrors.ErrCodeInvalidConfig, err, "settings.redis_url")
		}
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			c.Logger.Warn("redis unreachable, tag lookups will not be memoized", "err", err)
			rc.Close()
			return cache.NewNullCache(), nil
		}
		return rc, nil
	default:
		return newFileCache(refsCacheDir)
	}
}

// newCratesClient returns a crates.io client with an on-disk response cache.
func (c *CLI) newCratesClient() *crates.Client {
	backend, err := newFileCache(cratesCacheDir)
	if err != nil {
		c.Logger.Debug("crates cache unavailable", "err", err)
		backend = cache.NewNullCache()
	}
	return crates.NewClient(backend, cratesCacheTTL, integrations.WithRateLimit(cratesRPS)).WithBaseURL(c.cratesAPI)
}

func newFileCache(sub string) (cache.Cache, error) {
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(filepath.Join(dir, sub))
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/aidocs/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Flags
// =============================================================================

// Output formats for status and check.
const (
	formatText = "text"
	formatJSON = "json"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON:
		return nil
	}
	return aerrors.New(aerrors.ErrCodeInvalidInput, "unknown format %q (want text or json)", format)
}
