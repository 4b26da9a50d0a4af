package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/aidocs/pkg/config"
	"github.com/matzehuels/aidocs/pkg/errors"
	"github.com/matzehuels/aidocs/pkg/fetcher"
	"github.com/matzehuels/aidocs/pkg/integrations/github"
	"github.com/matzehuels/aidocs/pkg/resolver"
	"github.com/matzehuels/aidocs/pkg/store"
)

const lockData = `version = 4

[[package]]
name = "serde"
version = "1.0.217"

[[package]]
name = "tokio"
version = "1.43.0"

[[package]]
name = "anyhow"
version = "1.0.95"

[[package]]
name = "limited"
version = "0.1.0"
`

const serdeChangelog = "# Changelog\n\n## 1.0.217\nfix\n\n## 1.0.216\nold\n"

// mockGitHub serves the API and raw hosts from two chi routers.
type mockGitHub struct {
	api      *httptest.Server
	raw      *httptest.Server
	requests atomic.Int32
}

func newMockGitHub(t *testing.T) *mockGitHub {
	t.Helper()
	m := &mockGitHub{}
	count := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.requests.Add(1)
			next.ServeHTTP(w, r)
		})
	}

	tags := map[string]bool{"serde-rs/serde@v1.0.217": true}
	branches := map[string]string{"tokio-rs/tokio": "master", "dtolnay/anyhow": "master", "serde-rs/serde": "master"}
	files := map[string]string{
		"serde-rs/serde/v1.0.217/README.md":    "# serde\n",
		"serde-rs/serde/v1.0.217/CHANGELOG.md": serdeChangelog,
		"tokio-rs/tokio/master/README.md":      "# tokio\n",
		"dtolnay/anyhow/master/README.md":      "# anyhow\n",
	}

	api := chi.NewRouter()
	api.Use(count)
	api.Get("/repos/{owner}/{repo}/git/ref/tags/{tag}", func(w http.ResponseWriter, r *http.Request) {
		repo := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "repo")
		if repo == "acme/limited" {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if !tags[repo+"@"+chi.URLParam(r, "tag")] {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"ref":"refs/tags/x"}`))
	})
	api.Get("/repos/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		branch, ok := branches[chi.URLParam(r, "owner")+"/"+chi.URLParam(r, "repo")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"default_branch":"` + branch + `"}`))
	})

	raw := chi.NewRouter()
	raw.Use(count)
	raw.Get("/{owner}/{repo}/{ref}/*", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "*") == "docs/unavailable.md" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		key := strings.Join([]string{chi.URLParam(r, "owner"), chi.URLParam(r, "repo"), chi.URLParam(r, "ref"), chi.URLParam(r, "*")}, "/")
		body, ok := files[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	})

	m.api = httptest.NewServer(api)
	m.raw = httptest.NewServer(raw)
	t.Cleanup(func() {
		m.api.Close()
		m.raw.Close()
	})
	return m
}

func ghSource(repo string, files ...string) []config.Source {
	return []config.Source{config.GitHubSource{Repo: repo, Files: files}}
}

func newTestRunner(t *testing.T, m *mockGitHub, crates map[string]config.PackageSpec) *Runner {
	t.Helper()
	dir := t.TempDir()
	lock := filepath.Join(dir, "Cargo.lock")
	if err := os.WriteFile(lock, []byte(lockData), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Settings.LockFile = lock
	cfg.Settings.OutputDir = filepath.Join(dir, "docs")
	for name, spec := range crates {
		spec.Name = name
		cfg.Crates[name] = spec
	}

	gh := github.NewClient("").WithBaseURLs(m.api.URL, m.raw.URL)
	return &Runner{
		Config:   cfg,
		Resolver: resolver.New(gh),
		Fetcher:  fetcher.New(gh, fetcher.WithRetryDelay(time.Millisecond)),
		Store:    store.New(cfg.Settings.OutputDir),
		Now:      func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestRun(t *testing.T) {
	m := newMockGitHub(t)
	r := newTestRunner(t, m, map[string]config.PackageSpec{
		"serde":   {Sources: ghSource("serde-rs/serde"), AINotes: "Use derive."},
		"tokio":   {Sources: ghSource("tokio-rs/tokio")},
		"anyhow":  {Sources: ghSource("dtolnay/anyhow", "README.md", "docs/missing.md")},
		"limited": {Sources: ghSource("acme/limited")},
		"rand":    {Sources: ghSource("rust-random/rand")},
	})

	report, err := r.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if report.Synced != 2 || report.Skipped != 1 || report.Errors != 2 || report.RateLimited != 1 || report.Cached != 0 {
		t.Errorf("report = %+v", report)
	}
	if !report.Fatal() {
		t.Error("Fatal() = false with a missing explicit file")
	}
	if report.RunID == "" {
		t.Error("RunID is empty")
	}

	failed := map[string]errors.Code{}
	for _, f := range report.Failures {
		failed[f.Package] = errors.GetCode(f.Err)
	}
	if failed["anyhow"] != errors.ErrCodeExplicitFileMissing || failed["limited"] != errors.ErrCodeRateLimited {
		t.Errorf("failures = %v", failed)
	}

	changelog, err := r.Store.ReadFile("serde", "1.0.217", "CHANGELOG.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(changelog, "## 1.0.217\nfix\n\n") {
		t.Errorf("changelog not trimmed:\n%s", changelog)
	}

	meta, err := r.Store.ReadMeta("tokio", "1.43.0")
	if err != nil {
		t.Fatal(err)
	}
	if !meta.IsFallback || meta.GitRef != "master" || meta.RunID != report.RunID {
		t.Errorf("tokio meta = %+v", meta)
	}

	if _, err := os.Stat(r.Store.Dir("anyhow", "1.0.95")); !os.IsNotExist(err) {
		t.Error("anyhow directory written despite missing explicit file")
	}

	index, err := os.ReadFile(filepath.Join(r.Store.Root, store.IndexFile))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"serde@1.0.217", "tokio@1.43.0", "fallback"} {
		if !strings.Contains(string(index), want) {
			t.Errorf("index missing %q:\n%s", want, index)
		}
	}
	if strings.Contains(string(index), "anyhow") {
		t.Errorf("index lists failed package:\n%s", index)
	}
}

func TestRunExplicitServerErrorIsFatal(t *testing.T) {
	m := newMockGitHub(t)
	r := newTestRunner(t, m, map[string]config.PackageSpec{
		"serde": {Sources: ghSource("serde-rs/serde", "README.md", "docs/unavailable.md")},
	})

	report, err := r.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.Errors != 1 || len(report.Failures) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if code := errors.GetCode(report.Failures[0].Err); code != errors.ErrCodeExplicitFileMissing {
		t.Errorf("failure code = %s, want %s", code, errors.ErrCodeExplicitFileMissing)
	}
	if !report.Fatal() {
		t.Error("Fatal() = false after an explicit file kept failing")
	}
	if _, err := os.Stat(r.Store.Dir("serde", "1.0.217")); !os.IsNotExist(err) {
		t.Error("serde directory written despite unavailable explicit file")
	}
}

func TestRunSkipsCached(t *testing.T) {
	m := newMockGitHub(t)
	r := newTestRunner(t, m, map[string]config.PackageSpec{
		"serde": {Sources: ghSource("serde-rs/serde")},
	})
	ctx := context.Background()

	if _, err := r.Run(ctx, Options{}); err != nil {
		t.Fatal(err)
	}
	before := m.requests.Load()

	report, err := r.Run(ctx, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if report.Cached != 1 || report.Synced != 0 {
		t.Errorf("report = %+v", report)
	}
	if m.requests.Load() != before {
		t.Errorf("cached run made %d requests", m.requests.Load()-before)
	}
	if len(report.Entries) != 1 || report.Entries[0].Ref != "v1.0.217" {
		t.Errorf("entries = %+v", report.Entries)
	}

	report, err = r.Run(ctx, Options{Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if report.Synced != 1 || report.Cached != 0 {
		t.Errorf("forced report = %+v", report)
	}
}

func TestRunResyncsAfterConfigChange(t *testing.T) {
	m := newMockGitHub(t)
	r := newTestRunner(t, m, map[string]config.PackageSpec{
		"serde": {Sources: ghSource("serde-rs/serde")},
	})
	ctx := context.Background()
	if _, err := r.Run(ctx, Options{}); err != nil {
		t.Fatal(err)
	}

	spec := r.Config.Crates["serde"]
	spec.AINotes = "new notes"
	r.Config.Crates["serde"] = spec

	report, err := r.Run(ctx, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if report.Synced != 1 {
		t.Errorf("report = %+v, want a re-sync", report)
	}
	summary, _ := r.Store.ReadFile("serde", "1.0.217", store.SummaryFile)
	if !strings.Contains(summary, "new notes") {
		t.Errorf("summary not refreshed:\n%s", summary)
	}
}

func TestRunPrune(t *testing.T) {
	m := newMockGitHub(t)
	r := newTestRunner(t, m, map[string]config.PackageSpec{
		"serde": {Sources: ghSource("serde-rs/serde")},
	})
	stale := r.Store.Dir("serde", "1.0.100")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatal(err)
	}

	report, err := r.Run(context.Background(), Options{Prune: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Pruned) != 1 || report.Pruned[0] != "serde@1.0.100" {
		t.Errorf("Pruned = %v", report.Pruned)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale directory survived")
	}
}

func TestRunLockNotFound(t *testing.T) {
	m := newMockGitHub(t)
	r := newTestRunner(t, m, nil)
	r.Config.Settings.LockFile = filepath.Join(t.TempDir(), "Cargo.lock")

	_, err := r.Run(context.Background(), Options{})
	if !errors.Is(err, errors.ErrCodeLockNotFound) {
		t.Errorf("Run() error = %v, want LOCK_NOT_FOUND", err)
	}
}

// stubFetcher returns canned files per repo.
type stubFetcher struct {
	files map[string][]fetcher.FetchedFile
}

func (s *stubFetcher) FetchDefaults(_ context.Context, repo, _, _ string, _ fetcher.Include) ([]fetcher.FetchedFile, error) {
	return s.files[repo], nil
}

func (s *stubFetcher) FetchExplicit(_ context.Context, repo, _ string, _ []string) ([]fetcher.FetchedFile, error) {
	return s.files[repo], nil
}

type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, _, _, version string) (resolver.Ref, error) {
	return resolver.Ref{GitRef: "v" + version}, nil
}

func TestRunSourceOrder(t *testing.T) {
	m := newMockGitHub(t)
	r := newTestRunner(t, m, map[string]config.PackageSpec{
		"serde": {Sources: []config.Source{
			config.DocsRsSource{},
			config.GitHubSource{Repo: "empty/repo"},
			config.GitHubSource{Repo: "serde-rs/serde"},
			config.GitHubSource{Repo: "never/used"},
		}},
		"tokio": {Sources: []config.Source{config.DocsRsSource{}}},
	})
	r.Resolver = stubResolver{}
	r.Fetcher = &stubFetcher{files: map[string][]fetcher.FetchedFile{
		"serde-rs/serde": {{Path: "README.md", Content: "# serde\n", SourceURL: "u1"}},
		"never/used":     {{Path: "OTHER.md", Content: "x", SourceURL: "u2"}},
	}}

	report, err := r.Run(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if report.Synced != 1 || report.Skipped != 1 || report.Errors != 0 {
		t.Errorf("report = %+v", report)
	}
	files, _ := r.Store.ListFiles("serde", "1.0.217")
	if strings.Join(files, ",") != "README.md,_SUMMARY.md" {
		t.Errorf("files = %v", files)
	}
}

func TestReportFatal(t *testing.T) {
	tests := []struct {
		name     string
		failures []Failure
		want     bool
	}{
		{"no failures", nil, false},
		{"rate limited", []Failure{{Err: &errors.RateLimitedError{}}}, false},
		{"network", []Failure{{Err: errors.New(errors.ErrCodeNetwork, "boom")}}, false},
		{"explicit missing", []Failure{
			{Err: &errors.RateLimitedError{}},
			{Err: &errors.ExplicitFileMissingError{Repo: "a/b", Path: "x.md", Ref: "v1"}},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Report{Failures: tt.failures}
			if got := r.Fatal(); got != tt.want {
				t.Errorf("Fatal() = %v, want %v", got, tt.want)
			}
		})
	}
}
