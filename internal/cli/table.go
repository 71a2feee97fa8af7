package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

var validTableNamesStr = strings.Join(types.StandardTableNames, ", ")

// withTable attaches the store, resolves name and runs fn against it.
func (a *app) withTable(name string, fn func(types.Table) error) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Detach()

	tbl, err := s.GetTable(name)
	if err != nil {
		if errors.Is(err, types.ErrTableNotFound) {
			return userError(fmt.Errorf("unknown table %q (valid: %s)", name, validTableNamesStr))
		}
		return sysError(fmt.Errorf("get table: %w", err))
	}
	return classify(fn(tbl))
}

// parseEntityJSON decodes data into the record type stored in tableName.
func parseEntityJSON(tableName string, data []byte) (any, error) {
	var e any
	switch tableName {
	case types.TableCompanies:
		e = &types.Company{}
	case types.TablePeople:
		e = &types.Person{}
	case types.TableOpportunities:
		e = &types.Opportunity{}
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrTableNotFound, tableName)
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return e, nil
}

// parsePatchJSON decodes data into the partial update type for tableName.
func parsePatchJSON(tableName string, data []byte) (any, error) {
	var p any
	switch tableName {
	case types.TableCompanies:
		p = &types.CompanyPatch{}
	case types.TablePeople:
		p = &types.PersonPatch{}
	case types.TableOpportunities:
		p = &types.OpportunityPatch{}
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrTableNotFound, tableName)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return p, nil
}

// readPayload returns arg, or standard input when arg is "-".
func readPayload(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, sysError(fmt.Errorf("read stdin: %w", err))
	}
	return data, nil
}

func parseRecordID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, userError(fmt.Errorf("%w: %q", types.ErrInvalidID, s))
	}
	return id, nil
}

// parseFilterArgs turns key=value pairs into a Filter. Values that parse
// as JSON keep their JSON type; anything else is a string.
func parseFilterArgs(args []string) (types.Filter, error) {
	filter := types.Filter{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, userError(fmt.Errorf("invalid filter %q (expected key=value)", arg))
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		filter[key] = parsed
	}
	return filter, nil
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "get <table> <id>",
		Short:   "Get a record by ID",
		Example: "  rolodex get opportunities 3\n  rolodex get companies 1",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[1])
			if err != nil {
				return err
			}
			return a.withTable(args[0], func(tbl types.Table) error {
				rec, err := tbl.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				return a.printJSON(rec)
			})
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <table> [key=value...]",
		Short: "List records with optional filters",
		Long: `List queries records from a table. Filters are key=value pairs:
company_id, status, order_by (name, amount, close_date, created_at, id),
descending, limit and offset. Records are ordered by name unless order_by
says otherwise.`,
		Example: "  rolodex list opportunities status=Proposal\n  rolodex list people company_id=2 limit=10",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilterArgs(args[1:])
			if err != nil {
				return err
			}
			return a.withTable(args[0], func(tbl types.Table) error {
				recs, err := tbl.Fetch(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return a.printJSON(recs)
			})
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "create <table> <json|->",
		Short:   "Insert a record",
		Example: `  rolodex create companies '{"name":"Acme"}'` + "\n" + `  rolodex create opportunities '{"name":"Pilot","companyId":1,"amount":5000}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readPayload(cmd, args[1])
			if err != nil {
				return err
			}
			return a.withTable(args[0], func(tbl types.Table) error {
				e, err := parseEntityJSON(args[0], data)
				if err != nil {
					return err
				}
				rec, err := tbl.Insert(cmd.Context(), e)
				if err != nil {
					return err
				}
				return a.printJSON(rec)
			})
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <table> <id> <json|->",
		Short: "Replace a record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[1])
			if err != nil {
				return err
			}
			data, err := readPayload(cmd, args[2])
			if err != nil {
				return err
			}
			return a.withTable(args[0], func(tbl types.Table) error {
				e, err := parseEntityJSON(args[0], data)
				if err != nil {
					return err
				}
				rec, err := tbl.Update(cmd.Context(), id, e)
				if err != nil {
					return err
				}
				return a.printJSON(rec)
			})
		},
	}
}

func newPatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "patch <table> <id> <json|->",
		Short:   "Change some fields of a record",
		Example: `  rolodex patch opportunities 3 '{"status":"Negotiation"}'`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[1])
			if err != nil {
				return err
			}
			data, err := readPayload(cmd, args[2])
			if err != nil {
				return err
			}
			return a.withTable(args[0], func(tbl types.Table) error {
				p, err := parsePatchJSON(args[0], data)
				if err != nil {
					return err
				}
				rec, err := tbl.Patch(cmd.Context(), id, p)
				if err != nil {
					return err
				}
				return a.printJSON(rec)
			})
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Remove a record by ID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[1])
			if err != nil {
				return err
			}
			return a.withTable(args[0], func(tbl types.Table) error {
				if err := tbl.Delete(cmd.Context(), id); err != nil {
					return err
				}
				if a.flags.jsonMode {
					return a.printJSON(map[string]any{"deleted": id, "table": args[0]})
				}
				fmt.Fprintf(a.out, "Deleted %s/%d\n", args[0], id)
				return nil
			})
		},
	}
}
