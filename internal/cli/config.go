package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/rolodex/internal/paths"
	"github.com/mesh-intelligence/rolodex/pkg/store"
	"github.com/mesh-intelligence/rolodex/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "ROLODEX"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyDSN           = "dsn"
	cfgKeyLogLevel      = "log_level"
	cfgKeyHTTPAddress   = "http.address"
	cfgKeyHTTPTimeout   = "http.timeout"
	cfgKeyServerURL     = "server_url"
	cfgKeyClientTimeout = "client.timeout"
)

// configFile is the shape of config.yaml.
type configFile struct {
	Backend   string       `yaml:"backend"`
	DataDir   string       `yaml:"data_dir,omitempty"`
	DSN       string       `yaml:"dsn,omitempty"`
	LogLevel  string       `yaml:"log_level"`
	HTTP      httpConfig   `yaml:"http"`
	ServerURL string       `yaml:"server_url"`
	Client    clientConfig `yaml:"client"`
}

type httpConfig struct {
	Address string `yaml:"address"`
	Timeout string `yaml:"timeout"`
}

type clientConfig struct {
	Timeout string `yaml:"timeout"`
}

func defaultConfig() configFile {
	return configFile{
		Backend:   types.BackendSQLite,
		LogLevel:  "INFO",
		HTTP:      httpConfig{Address: ":8080", Timeout: "5s"},
		ServerURL: "http://localhost:8080",
		Client:    clientConfig{Timeout: "30s"},
	}
}

// loadConfig reads config.yaml from configDir, creating the directory and
// a default file on first run. ROLODEX_* environment variables override
// file values.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), defaultConfig()); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}

	d := defaultConfig()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, d.Backend)
	v.SetDefault(cfgKeyLogLevel, d.LogLevel)
	v.SetDefault(cfgKeyHTTPAddress, d.HTTP.Address)
	v.SetDefault(cfgKeyHTTPTimeout, d.HTTP.Timeout)
	v.SetDefault(cfgKeyServerURL, d.ServerURL)
	v.SetDefault(cfgKeyClientTimeout, d.Client.Timeout)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyDSN, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// writeConfigIfMissing creates path from cfg unless the file exists.
func writeConfigIfMissing(path string, cfg configFile) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte("# rolodex configuration\n"), data...), 0o644)
}

func (a *app) duration(key string) (time.Duration, error) {
	raw := a.v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, userError(fmt.Errorf("config %s: invalid duration %q", key, raw))
	}
	return d, nil
}

func (a *app) storeConfig() (types.Config, error) {
	cfg := types.Config{
		Backend: strings.ToLower(a.v.GetString(cfgKeyBackend)),
		DSN:     a.v.GetString(cfgKeyDSN),
	}
	if cfg.Backend == types.BackendSQLite {
		dir, err := paths.ResolveDataDir(a.flags.dataDir, a.v.GetString(cfgKeyDataDir))
		if err != nil {
			return cfg, sysError(fmt.Errorf("resolve data dir: %w", err))
		}
		cfg.DataDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return cfg, userError(err)
	}
	return cfg, nil
}

// openStore attaches the configured backend. The caller must Detach it.
func (a *app) openStore() (store.Backend, error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, err
	}
	b, err := store.Open(cfg)
	if err != nil {
		return nil, sysError(fmt.Errorf("attach %s store: %w", cfg.Backend, err))
	}
	return b, nil
}

func (a *app) serverURL() string {
	if a.flags.server != "" {
		return a.flags.server
	}
	return a.v.GetString(cfgKeyServerURL)
}
