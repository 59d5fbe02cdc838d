package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/stackplan/pkg/timeline"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() invalid: %v", err)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[server]
addr = ":9000"

[store]
driver = "sqlite"
dsn = "plan.db"

[cache]
driver = "redis"
redis_url = "redis://localhost:6379/0"

[timeline]
zoom = "day"
day_width = 32
padding_days = 3
`)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.RequestTimeout != 30 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Store.Driver != StoreSQLite || cfg.Store.DSN != "plan.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Timeline.ColumnWidth(timeline.ZoomDay) != 32 {
		t.Errorf("day width = %v", cfg.Timeline.ColumnWidth(timeline.ZoomDay))
	}
	if cfg.Timeline.ColumnWidth(timeline.ZoomMonth) != timeline.DefaultMonthWidth {
		t.Error("unset month width lost its default")
	}
	if cfg.Timeline.PaddingDays == nil || *cfg.Timeline.PaddingDays != 3 || cfg.Timeline.RowHeight != timeline.DefaultRowHeight {
		t.Errorf("timeline options = %+v", cfg.Timeline.Options)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"syntax", `[server`, "parse config"},
		{"unknown key", "[server]\nport = 1\n", `unknown key "server.port"`},
		{"bad driver", "[store]\ndriver = \"oracle\"\n", "driver"},
		{"missing dsn", "[store]\ndriver = \"postgres\"\n", "dsn"},
		{"redis without url", "[cache]\ndriver = \"redis\"\n", "redis"},
		{"redis bad url", "[cache]\ndriver = \"redis\"\nredis_url = \"http://x\"\n", "redis"},
		{"bad zoom", "[timeline]\nzoom = \"year\"\n", "zoom"},
		{"bar taller than row", "[timeline]\nbar_height = 50\n", "bar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil {
				t.Fatal("Parse succeeded")
			}
			if !strings.Contains(strings.ToLower(err.Error()), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("STACKPLAN_TEST_DSN", "postgres://u:secret@db/plan")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[store]\ndriver = \"postgres\"\ndsn = \"${STACKPLAN_TEST_DSN}\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.DSN != "postgres://u:secret@db/plan" {
		t.Errorf("DSN = %q", cfg.Store.DSN)
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Driver != StoreMemory {
		t.Errorf("missing file did not yield defaults: %+v", cfg.Store)
	}
	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("explicit missing path should fail")
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("STACKPLAN_TEST_FROM_DOTENV=yes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STACKPLAN_TEST_FROM_DOTENV", "")
	os.Unsetenv("STACKPLAN_TEST_FROM_DOTENV")

	if err := LoadEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("STACKPLAN_TEST_FROM_DOTENV"); got != "yes" {
		t.Errorf("env = %q", got)
	}
}

func TestXDGDirs(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	dir, err := CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg-cache", AppName) {
		t.Errorf("CacheDir = %q", dir)
	}

	t.Setenv("XDG_DATA_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	dir, _ = DataDir()
	if dir != filepath.Join(home, ".local", "share", AppName) {
		t.Errorf("DataDir = %q", dir)
	}
}
