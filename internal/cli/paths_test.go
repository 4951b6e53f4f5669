package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUserDirs(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name string
		env  string
		fn   func() (string, error)
		xdg  string
		want string
	}{
		{"cache default", "XDG_CACHE_HOME", cacheDir, "", filepath.Join(home, ".cache", appName)},
		{"cache xdg", "XDG_CACHE_HOME", cacheDir, "/tmp/custom-cache", filepath.Join("/tmp/custom-cache", appName)},
		{"config default", "XDG_CONFIG_HOME", configDir, "", filepath.Join(home, ".config", appName)},
		{"config xdg", "XDG_CONFIG_HOME", configDir, "/tmp/custom-config", filepath.Join("/tmp/custom-config", appName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.xdg)
			got, err := tt.fn()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewCacheDisabled(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c := New(os.Stderr, LogWarn)
	c.noCache = true

	store, err := c.newCache()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(t.Context(), "any"); ok {
		t.Error("disabled cache reported a hit")
	}
}
