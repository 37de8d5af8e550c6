package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bonnierun/bonnie/internal/directive"
	"github.com/bonnierun/bonnie/internal/schema"
	"github.com/bonnierun/bonnie/internal/target"
	"github.com/bonnierun/bonnie/internal/version"
)

// TestRoundTrip checks testable property #2 from spec.md §8: serialize
// then deserialize a final Config is the identity.
func TestRoundTrip(t *testing.T) {
	d, err := directive.Parse("test { Any => other }")
	if err != nil {
		t.Fatalf("directive.Parse error: %v", err)
	}
	// Load re-runs env-file loading, so the declared env files must exist.
	dir := t.TempDir()
	envFiles := []string{filepath.Join(dir, ".env"), filepath.Join(dir, ".env.local")}
	for _, f := range envFiles {
		if err := os.WriteFile(f, []byte("BONNIE_CACHE_TEST=1\n"), 0o644); err != nil {
			t.Fatalf("failed to write env file %s: %v", f, err)
		}
	}
	cfg := &schema.Config{
		Version:  version.Version{Major: 1, Minor: 2, Patch: 3},
		EnvFiles: envFiles,
		DefaultShell: schema.DefaultShell{
			Generic: schema.Shell{"sh", "-c", "{COMMAND}"},
			Targets: map[target.Tag]schema.Shell{
				target.Windows: {"powershell", "-command", "{COMMAND}"},
			},
		},
		Scripts: map[string]*schema.Command{
			"basic": {
				Cmd: &schema.CommandWrapper{
					Generic: schema.CommandCore{Exec: []string{"echo %name"}},
					Targets: map[target.Tag]schema.CommandCore{
						target.Windows: {Exec: []string{"echo %name"}},
					},
				},
				Args: []string{"name"},
			},
			"grouped": {
				Order: d,
				Subcommands: map[string]*schema.Command{
					"test":  {Cmd: &schema.CommandWrapper{Generic: schema.CommandCore{Exec: []string{"exit 0"}}}},
					"other": {Cmd: &schema.CommandWrapper{Generic: schema.CommandCore{Exec: []string{"exit 1"}}}},
				},
			},
		},
	}

	path := filepath.Join(dir, ".bonnie.cache.json")
	if err := Write(path, cfg); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	loaded, err := Load(path, cfg.Version, os.Stderr, fakeEnviron{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

type fakeEnviron map[string]string

func (f fakeEnviron) Lookup(key string) (string, bool) { v, ok := f[key]; return v, ok }
func (f fakeEnviron) Set(key, value string) error      { f[key] = value; return nil }
