package buildinfo

import (
	"strings"
	"testing"
)

func TestUserAgent(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "v0.3.0"
	if got := UserAgent(); !strings.HasPrefix(got, "aidocs/v0.3.0") {
		t.Errorf("UserAgent() = %q, want aidocs/v0.3.0 prefix", got)
	}
}

func TestTemplate(t *testing.T) {
	if got := Template(); !strings.Contains(got, "{{.Name}} version "+Version) {
		t.Errorf("Template() = %q", got)
	}
}
