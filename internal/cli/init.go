package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize rolodex storage",
		Long:  "Create the configuration directory and config.yaml, then create the store schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.dataDir != "" {
				if err := a.recordDataDir(a.flags.dataDir); err != nil {
					return sysError(fmt.Errorf("write config: %w", err))
				}
			}
			cfg, err := a.storeConfig()
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			if err := s.Detach(); err != nil {
				return sysError(fmt.Errorf("finalize storage: %w", err))
			}

			if a.flags.jsonMode {
				return a.printJSON(map[string]string{
					"config":  a.configDir,
					"backend": cfg.Backend,
					"data":    cfg.DataDir,
				})
			}
			fmt.Fprintln(a.out, "Rolodex initialized successfully")
			fmt.Fprintln(a.out, "  config:", a.configDir)
			fmt.Fprintln(a.out, "  backend:", cfg.Backend)
			if cfg.DataDir != "" {
				fmt.Fprintln(a.out, "  data:  ", cfg.DataDir)
			}
			return nil
		},
	}
}

// recordDataDir stores dir as data_dir in config.yaml unless one is set.
func (a *app) recordDataDir(dir string) error {
	path := filepath.Join(a.configDir, configFileExt)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DataDir != "" {
		return nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	cfg.DataDir = abs
	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return err
	}
	a.v.Set(cfgKeyDataDir, abs)
	return nil
}
