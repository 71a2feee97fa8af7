// Package cli implements the rolodex command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/rolodex/internal/paths"
	"github.com/mesh-intelligence/rolodex/pkg/rolodex"
	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	server    string
}

// app is the state shared by one command invocation.
type app struct {
	flags     rootFlags
	configDir string
	v         *viper.Viper
	log       *slog.Logger
	out       io.Writer
	errOut    io.Writer
}

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// classify marks validation and lookup failures as user errors and
// everything else as system errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	for _, target := range []error{
		types.ErrNotFound, types.ErrInvalidID, types.ErrInvalidData, types.ErrInvalidFilter,
		types.ErrEmptyPatch, types.ErrInvalidName, types.ErrInvalidEmail, types.ErrInvalidStatus,
		types.ErrInvalidAmount, types.ErrInvalidProgress, types.ErrCompanyRequired,
		types.ErrCompanyNotFound, types.ErrCompanyInUse, types.ErrTableNotFound,
	} {
		if errors.Is(err, target) {
			return userError(err)
		}
	}
	return sysError(err)
}

// NewRootCmd creates the top-level "rolodex" command with global flags
// and all subcommands registered.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{out: stdout, errOut: stderr}

	root := &cobra.Command{
		Use:           "rolodex",
		Short:         "A small CRM for companies, people and the opportunity pipeline",
		Version:       rolodex.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: ./.rolodex or the user config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "sqlite data directory (default: ./.rolodex-db)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.flags.server, "server", "", "rolodex server URL (default from config server_url)")

	root.AddCommand(
		newVersionCmd(a),
		newInitCmd(a),
		newServeCmd(a),
		newGetCmd(a),
		newListCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newPatchCmd(a),
		newDeleteCmd(a),
		newBoardCmd(a),
		newSeedCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// Run executes the CLI with args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "rolodex:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Flag and argument errors come from cobra itself.
	return exitUserError
}

// Execute runs the CLI against the process arguments and exits.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

func (a *app) setup() error {
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := loadConfig(dir)
	if err != nil {
		return sysError(err)
	}
	a.configDir = dir
	a.v = v
	a.log = makeLogger(v.GetString(cfgKeyLogLevel), a.errOut)
	return nil
}
