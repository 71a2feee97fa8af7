package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rolodex/pkg/store"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty store with demo companies, people and opportunities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Detach()

			res, err := store.Seed(cmd.Context(), s)
			if err != nil {
				return classify(err)
			}
			if a.flags.jsonMode {
				return a.printJSON(res)
			}
			if res.Companies == 0 {
				fmt.Fprintln(a.out, "Store already has data; nothing seeded")
				return nil
			}
			fmt.Fprintf(a.out, "Seeded %d companies, %d people, %d opportunities\n",
				res.Companies, res.People, res.Opportunities)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every table to <dir> as JSONL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Detach()

			if err := s.Export(cmd.Context(), args[0]); err != nil {
				return sysError(fmt.Errorf("export: %w", err))
			}
			if a.flags.jsonMode {
				return a.printJSON(map[string]string{"exported": args[0]})
			}
			fmt.Fprintln(a.out, "Exported to", args[0])
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Load JSONL files written by export",
		Long: `Import reads companies.jsonl, people.jsonl and opportunities.jsonl from
<dir>. Record IDs are kept; records whose ID already exists and malformed
or invalid lines are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Detach()

			res, err := s.Import(cmd.Context(), args[0])
			if err != nil {
				return classify(fmt.Errorf("import: %w", err))
			}
			if a.flags.jsonMode {
				return a.printJSON(res)
			}
			fmt.Fprintf(a.out, "Imported %d companies, %d people, %d opportunities (%d skipped)\n",
				res.Companies, res.People, res.Opportunities, res.Skipped)
			return nil
		},
	}
}
