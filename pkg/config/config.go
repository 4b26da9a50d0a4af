package config

import (
	"bytes"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/aidocs/pkg/errors"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "ai-docs.toml"

// Duplicate lock entry policies.
const (
	DuplicateLast  = "last"
	DuplicateFirst = "first"
)

// Ref cache backends.
const (
	RefCacheFile  = "file"
	RefCacheRedis = "redis"
	RefCacheNone  = "none"
)

// Settings are the global [settings] of ai-docs.toml.
type Settings struct {
	OutputDir         string  `toml:"output_dir"`
	MaxFileSizeKB     int     `toml:"max_file_size_kb"`
	IncludeReadme     bool    `toml:"include_readme"`
	IncludeChangelog  bool    `toml:"include_changelog"`
	TrimChangelog     bool    `toml:"trim_changelog"`
	Prune             bool    `toml:"prune"`
	LockFile          string  `toml:"lock_file"`
	Concurrency       int     `toml:"concurrency"`
	DuplicateVersions string  `toml:"duplicate_versions"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	RefCache          string  `toml:"ref_cache"`
	RedisURL          string  `toml:"redis_url,omitempty"`
	LogFile           string  `toml:"log_file,omitempty"`
}

// MaxFileBytes returns the per-file size cap in bytes.
func (s Settings) MaxFileBytes() int { return s.MaxFileSizeKB * 1024 }

// PackageSpec is one [crates.<name>] entry.
type PackageSpec struct {
	Name    string
	Sources []Source
	AINotes string
}

// Config is a loaded ai-docs.toml.
type Config struct {
	Settings Settings
	Crates   map[string]PackageSpec

	// Warnings lists keys the decoder did not recognize.
	Warnings []string
}

// Default returns a config with every setting at its default and no crates.
func Default() *Config {
	return &Config{
		Settings: Settings{
			OutputDir:         "docs/ai/vendor-docs",
			MaxFileSizeKB:     200,
			IncludeReadme:     true,
			IncludeChangelog:  true,
			TrimChangelog:     true,
			LockFile:          "Cargo.lock",
			Concurrency:       4,
			DuplicateVersions: DuplicateLast,
			RefCache:          RefCacheFile,
		},
		Crates: map[string]PackageSpec{},
	}
}

// Load reads and validates the config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeConfigNotFound,
			"config file %s not found; create it (aidocs init) or pass --config", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes config TOML on top of [Default]. It does not validate.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	file := fileConfig{Settings: cfg.Settings}

	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	cfg.Settings = file.Settings

	for _, key := range md.Undecoded() {
		cfg.Warnings = append(cfg.Warnings, "unknown config key: "+key.String())
	}

	for name, fc := range file.Crates {
		spec := PackageSpec{Name: name, AINotes: fc.AINotes}
		raw := fc.Sources
		if fc.Repo != "" {
			raw = append([]fileSource{{Type: KindGitHub, Repo: fc.Repo, Files: fc.Files, Subpath: fc.Subpath}}, raw...)
		}
		for i, fs := range raw {
			src, err := fs.toSource()
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "crates.%s.sources[%d]", name, i)
			}
			spec.Sources = append(spec.Sources, src)
		}
		cfg.Crates[name] = spec
	}
	return cfg, nil
}

// Validate checks settings ranges and every package's sources.
func (c *Config) Validate() error {
	s := c.Settings
	switch {
	case strings.TrimSpace(s.OutputDir) == "":
		return errors.New(errors.ErrCodeInvalidConfig, "settings.output_dir cannot be empty")
	case s.MaxFileSizeKB <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "settings.max_file_size_kb must be positive, got %d", s.MaxFileSizeKB)
	case s.Concurrency <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "settings.concurrency must be positive, got %d", s.Concurrency)
	case s.RequestsPerSecond < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "settings.requests_per_second cannot be negative")
	case strings.TrimSpace(s.LockFile) == "":
		return errors.New(errors.ErrCodeInvalidConfig, "settings.lock_file cannot be empty")
	}
	if !slices.Contains([]string{DuplicateLast, DuplicateFirst}, s.DuplicateVersions) {
		return errors.New(errors.ErrCodeInvalidConfig,
			"settings.duplicate_versions must be %q or %q, got %q", DuplicateLast, DuplicateFirst, s.DuplicateVersions)
	}
	switch s.RefCache {
	case RefCacheFile, RefCacheNone:
	case RefCacheRedis:
		if s.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "settings.redis_url is required when ref_cache = \"redis\"")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"settings.ref_cache must be one of file, redis, none; got %q", s.RefCache)
	}

	for _, name := range c.Names() {
		if err := c.Crates[name].validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p PackageSpec) validate() error {
	if err := errors.ValidatePackageName(p.Name); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "crates.%s", p.Name)
	}
	if len(p.Sources) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "crates.%s: no sources configured", p.Name)
	}
	for i, src := range p.Sources {
		gh, ok := src.(GitHubSource)
		if !ok {
			continue
		}
		if err := errors.ValidateRepo(gh.Repo); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "crates.%s.sources[%d]", p.Name, i)
		}
		if gh.Subpath != "" {
			if err := errors.ValidatePath(gh.Subpath); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "crates.%s.sources[%d].subpath", p.Name, i)
			}
		}
		for _, f := range gh.Files {
			if err := errors.ValidatePath(f); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "crates.%s.sources[%d].files %q", p.Name, i, f)
			}
		}
	}
	return nil
}

// Names returns the configured package names, sorted.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Crates))
	for name := range c.Crates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Encode writes c as ai-docs.toml.
func (c *Config) Encode(w io.Writer) error {
	file := fileConfig{Settings: c.Settings, Crates: map[string]fileCrate{}}
	for name, spec := range c.Crates {
		fc := fileCrate{AINotes: spec.AINotes}
		for _, src := range spec.Sources {
			fc.Sources = append(fc.Sources, toFileSource(src))
		}
		file.Crates[name] = fc
	}
	return toml.NewEncoder(w).Encode(file)
}

// Marshal returns c encoded as TOML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Token returns the hosting credential from the environment: GITHUB_TOKEN,
// then GH_TOKEN. An empty result only lowers the rate limit.
func Token() string {
	for _, key := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

type fileConfig struct {
	Settings Settings             `toml:"settings"`
	Crates   map[string]fileCrate `toml:"crates"`
}

type fileCrate struct {
	// Shorthand for a single GitHub source.
	Repo    string   `toml:"repo,omitempty"`
	Files   []string `toml:"files,omitempty"`
	Subpath string   `toml:"subpath,omitempty"`

	Sources []fileSource `toml:"sources"`
	AINotes string       `toml:"ai_notes,omitempty"`
}
