// Package status compares what is cached on disk with what the lock file pins.
//
// Each configured package lands in exactly one of four states:
//
//	Synced     {name}@{lock} exists and holds a .md file or the meta marker
//	Corrupted  {name}@{lock} exists but holds neither
//	Outdated   only some other {name}@* directory exists
//	Missing    no lock entry, or nothing on disk
//
// The checks run in that order. An outdated directory is reported with the
// first matching version in directory order and is not itself inspected.
package status

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/matzehuels/aidocs/pkg/store"
)

// State is the sync state of one package.
type State string

const (
	Synced    State = "Synced"
	Missing   State = "Missing"
	Outdated  State = "Outdated"
	Corrupted State = "Corrupted"
)

// Hint is printed when any package needs attention.
const Hint = "Run aidocs sync --force"

// none is shown for absent versions.
const none = "-"

// Row is the status of one configured package. Empty versions mean absent.
type Row struct {
	Name          string `json:"name"`
	LockVersion   string `json:"lock_version,omitempty"`
	SyncedVersion string `json:"synced_version,omitempty"`
	Status        State  `json:"status"`
}

// Summary counts rows per state.
type Summary struct {
	Total     int `json:"total"`
	Synced    int `json:"synced"`
	Missing   int `json:"missing"`
	Outdated  int `json:"outdated"`
	Corrupted int `json:"corrupted"`
}

// HasIssues reports whether any package is not synced.
func (s Summary) HasIssues() bool {
	return s.Missing > 0 || s.Outdated > 0 || s.Corrupted > 0
}

// String formats the summary line.
func (s Summary) String() string {
	return fmt.Sprintf("Summary: total=%d, synced=%d, missing=%d, outdated=%d, corrupted=%d",
		s.Total, s.Synced, s.Missing, s.Outdated, s.Corrupted)
}

// Reconcile computes one row per name, sorted by name.
func Reconcile(names []string, locked map[string]string, root string) []Row {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	rows := make([]Row, 0, len(sorted))
	for _, name := range sorted {
		lock := locked[name]
		synced, state := detect(root, name, lock)
		rows = append(rows, Row{
			Name:          name,
			LockVersion:   lock,
			SyncedVersion: synced,
			Status:        state,
		})
	}
	return rows
}

func detect(root, name, lock string) (string, State) {
	if lock == "" {
		return "", Missing
	}

	dir := filepath.Join(root, store.DirName(name, lock))
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		if hasContent(dir) {
			return lock, Synced
		}
		return lock, Corrupted
	}

	if version, ok := anyVersion(root, name); ok {
		return version, Outdated
	}
	return "", Missing
}

func hasContent(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".md") || e.Name() == store.MetaFile {
			return true
		}
	}
	return false
}

func anyVersion(root, name string) (string, bool) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", false
	}
	prefix := name + "@"
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		return strings.TrimPrefix(e.Name(), prefix), true
	}
	return "", false
}

// Summarize counts rows per state.
func Summarize(rows []Row) Summary {
	s := Summary{Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case Synced:
			s.Synced++
		case Missing:
			s.Missing++
		case Outdated:
			s.Outdated++
		case Corrupted:
			s.Corrupted++
		}
	}
	return s
}

// Display returns v, or "-" when empty.
func Display(v string) string {
	if v == "" {
		return none
	}
	return v
}

// Write prints an aligned table, the summary line, and the hint when needed.
func Write(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Crate\tLock\tSynced\tStatus")
	fmt.Fprintln(tw, "-----\t----\t------\t------")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, Display(r.LockVersion), Display(r.SyncedVersion), r.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	summary := Summarize(rows)
	if _, err := fmt.Fprintln(w, summary); err != nil {
		return err
	}
	if summary.HasIssues() {
		_, err := fmt.Fprintln(w, Hint)
		return err
	}
	return nil
}

// Report is the machine-readable status document.
type Report struct {
	Packages  []Row   `json:"packages"`
	Summary   Summary `json:"summary"`
	HasIssues bool    `json:"has_issues"`
}

// NewReport builds a report from rows.
func NewReport(rows []Row) Report {
	if rows == nil {
		rows = []Row{}
	}
	s := Summarize(rows)
	return Report{Packages: rows, Summary: s, HasIssues: s.HasIssues()}
}

// WriteJSON prints the report as indented JSON.
func WriteJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewReport(rows))
}
