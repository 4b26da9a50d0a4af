// Package lockfile reads Cargo.lock into a name → version mapping.
//
// Only the [[package]] array is consulted; every other table and every
// unknown field is ignored. Cargo.lock may list the same crate more than
// once when two major versions coexist in the graph, so the caller chooses
// which entry wins with a [DuplicatePolicy].
package lockfile

import (
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/aidocs/pkg/errors"
)

// DuplicatePolicy selects the version kept when a package appears more than once.
type DuplicatePolicy string

const (
	// KeepLast keeps the last entry in file order.
	KeepLast DuplicatePolicy = "last"
	// KeepFirst keeps the first entry in file order.
	KeepFirst DuplicatePolicy = "first"
)

// ParsePolicy maps a settings value to a policy. Empty selects KeepLast.
func ParsePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeepLast:
		return KeepLast, nil
	case KeepFirst:
		return KeepFirst, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown duplicate policy %q (want last or first)", s)
}

// Versions maps package name to the exact locked version.
type Versions map[string]string

// Get returns the locked version of name.
func (v Versions) Get(name string) (string, bool) {
	ver, ok := v[name]
	return ver, ok
}

// Names returns the locked package names, sorted.
func (v Versions) Names() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads and parses the lock file at path.
func Load(path string, policy DuplicatePolicy) (Versions, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeLockNotFound,
			"lock file %s not found; run cargo generate-lockfile (or cargo build) first", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLockParse, err, "read %s", path)
	}
	return Parse(data, policy)
}

// Parse decodes Cargo.lock content.
func Parse(data []byte, policy DuplicatePolicy) (Versions, error) {
	var lock cargoLock
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLockParse, err, "malformed Cargo.lock")
	}
	if lock.Packages == nil {
		return nil, errors.New(errors.ErrCodeLockParse, "Cargo.lock has no [[package]] entries")
	}

	versions := make(Versions, len(lock.Packages))
	for i, pkg := range lock.Packages {
		name, version := strings.TrimSpace(pkg.Name), strings.TrimSpace(pkg.Version)
		if name == "" {
			return nil, errors.New(errors.ErrCodeLockParse, "package entry %d has no name", i+1)
		}
		if version == "" {
			return nil, errors.New(errors.ErrCodeLockParse, "package %q has no version", name)
		}
		if _, seen := versions[name]; seen && policy == KeepFirst {
			continue
		}
		versions[name] = version
	}
	return versions, nil
}

// Duplicates returns the packages that appear with more than one version,
// mapped to every version in file order. Used to warn about ambiguity.
func Duplicates(data []byte) (map[string][]string, error) {
	var lock cargoLock
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLockParse, err, "malformed Cargo.lock")
	}
	all := map[string][]string{}
	for _, pkg := range lock.Packages {
		all[pkg.Name] = append(all[pkg.Name], pkg.Version)
	}
	dups := map[string][]string{}
	for name, vs := range all {
		if len(vs) > 1 {
			dups[name] = vs
		}
	}
	return dups, nil
}

type cargoLock struct {
	Version  int            `toml:"version"`
	Packages []cargoPackage `toml:"package"`
}

type cargoPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}
