package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	old := Version
	defer func() { Version = old }()
	Version = "v9.9.9"

	got := Template()
	if !strings.HasPrefix(got, "{{.Name}} version: v9.9.9\n") || !strings.HasSuffix(got, "\n") {
		t.Errorf("Template() = %q", got)
	}
	if !strings.Contains(String(), "commit: "+Commit) {
		t.Errorf("String() = %q", String())
	}
}
