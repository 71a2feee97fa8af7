package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rolodex/pkg/rolodex"
)

const modulePath = "github.com/mesh-intelligence/rolodex"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rolodex version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.jsonMode {
				return a.printJSON(map[string]string{"version": rolodex.Version, "module": modulePath})
			}
			fmt.Fprintf(a.out, "rolodex v%s\nmodule: %s\n", rolodex.Version, modulePath)
			return nil
		},
	}
}
