package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inDir points the working-directory lookup at dir for one test.
func inDir(t *testing.T, dir string) {
	t.Helper()
	orig := platformDir.getwd
	platformDir.getwd = func() (string, error) { return dir, nil }
	t.Cleanup(func() { platformDir.getwd = orig })
}

func TestDefaultDirsLinux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		env  string
		val  string
		fn   func() (string, error)
		want string
	}{
		{name: "config from XDG", env: "XDG_CONFIG_HOME", val: "/tmp/xdg-config", fn: DefaultConfigDir, want: "/tmp/xdg-config/rolodex"},
		{name: "config fallback", env: "XDG_CONFIG_HOME", val: "", fn: DefaultConfigDir, want: filepath.Join(home, ".config", "rolodex")},
		{name: "data from XDG", env: "XDG_DATA_HOME", val: "/tmp/xdg-data", fn: DefaultDataDir, want: "/tmp/xdg-data/rolodex"},
		{name: "data fallback", env: "XDG_DATA_HOME", val: "", fn: DefaultDataDir, want: filepath.Join(home, ".local", "share", "rolodex")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.val)
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveConfigDir(t *testing.T) {
	withLocal := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(withLocal, DefaultConfigDirName), 0o755))
	withoutLocal := t.TempDir()

	tests := []struct {
		name    string
		cwd     string
		flag    string
		env     string
		want    string
		wantSub string
	}{
		{name: "flag wins over env", cwd: withLocal, flag: "/explicit/config", env: "/env/config", want: "/explicit/config"},
		{name: "env wins when flag empty", cwd: withLocal, env: "/env/config", want: "/env/config"},
		{name: "project directory when present", cwd: withLocal, want: filepath.Join(withLocal, DefaultConfigDirName)},
		{name: "platform default otherwise", cwd: withoutLocal, wantSub: "rolodex"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inDir(t, tt.cwd)
			t.Setenv(EnvConfigDir, tt.env)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			if tt.want != "" {
				assert.Equal(t, tt.want, got)
			} else {
				assert.Contains(t, got, tt.wantSub)
				assert.NotContains(t, got, withoutLocal)
			}
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	cwd := t.TempDir()

	tests := []struct {
		name        string
		flag        string
		configValue string
		env         string
		want        string
	}{
		{name: "flag wins over all", flag: "/flag/data", configValue: "/config/data", env: "/env/data", want: "/flag/data"},
		{name: "config wins over env", configValue: "/config/data", env: "/env/data", want: "/config/data"},
		{name: "env when flag and config empty", env: "/env/data", want: "/env/data"},
		{name: "project default when all empty", want: filepath.Join(cwd, DefaultDataDirName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inDir(t, cwd)
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.configValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveMakesRelativePathsAbsolute(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "")

	got, err := ResolveConfigDir("relative/config")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)

	got, err = ResolveDataDir("", "relative/data")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
}
