package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rolodex/internal/client"
	"github.com/mesh-intelligence/rolodex/internal/pipeline"
	"github.com/mesh-intelligence/rolodex/pkg/types"
)

var stageColors = map[types.Status]*color.Color{
	types.StatusQualified:   color.New(color.FgCyan, color.Bold),
	types.StatusProposal:    color.New(color.FgYellow, color.Bold),
	types.StatusNegotiation: color.New(color.FgMagenta, color.Bold),
	types.StatusClosedWon:   color.New(color.FgGreen, color.Bold),
}

type boardFlags struct {
	status string
	local  bool
}

// columnJSON is the --json shape of one board column.
type columnJSON struct {
	Status        types.Status        `json:"status"`
	Opportunities []types.Opportunity `json:"opportunities"`
}

// parseStage accepts a stage name typed on the command line in any case.
func parseStage(s string) (types.Status, error) {
	s = strings.TrimSpace(s)
	for _, v := range types.Statuses {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return types.ParseStatus(s)
}

func newBoardCmd(a *app) *cobra.Command {
	var bf boardFlags
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the opportunity pipeline",
		Long: `Board loads every opportunity and groups them into the pipeline stages
Qualified, Proposal, Negotiation and Closed Won. It talks to the server at
server_url unless --local is given, in which case it opens the store directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var only types.Status
			if bf.status != "" {
				s, err := parseStage(bf.status)
				if err != nil {
					return userError(err)
				}
				only = s
			}
			ctl, done, err := a.newController(cmd.Context(), bf.local)
			if err != nil {
				return err
			}
			defer done()
			return a.renderBoard(ctl.Collection(), only)
		},
	}
	cmd.PersistentFlags().BoolVar(&bf.local, "local", false, "use the local store instead of the server")
	cmd.Flags().StringVar(&bf.status, "status", "", "show a single stage")
	cmd.AddCommand(newBoardMoveCmd(a, &bf))
	return cmd
}

func newBoardMoveCmd(a *app, bf *boardFlags) *cobra.Command {
	var (
		anchor   int64
		position string
	)
	cmd := &cobra.Command{
		Use:   "move <id> [status]",
		Short: "Drag an opportunity to another stage or next to another card",
		Long: `Move drags one card. With a status it is dropped on that column and lands
at the end of it. With --anchor it is dropped on the anchor card and lands
above or below it, taking the anchor's stage. The board is updated at once
and the new stage is saved; if saving fails the previous board is restored.`,
		Example: "  rolodex board move 4 Negotiation\n  rolodex board move 4 --anchor 2 --position above",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			var status types.Status
			if len(args) == 2 {
				if status, err = parseStage(args[1]); err != nil {
					return userError(err)
				}
			}
			pos, err := pipeline.ParsePosition(position)
			if err != nil {
				return userError(err)
			}
			if anchor == 0 && status == "" {
				return userError(errors.New("move needs a status or --anchor"))
			}

			var alert error
			ctl, done, err := a.newController(cmd.Context(), bf.local,
				pipeline.WithErrorHandler(func(err error) { alert = err }))
			if err != nil {
				return err
			}
			defer done()

			m, ok, err := planMove(ctl.Collection(), id, status, anchor, pos)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(a.errOut, "nothing to move")
				return a.renderBoard(ctl.Collection(), "")
			}

			if _, err := ctl.Move(cmd.Context(), m); err != nil {
				if rerr := a.renderBoard(ctl.Collection(), ""); rerr != nil {
					return rerr
				}
				if alert != nil {
					err = alert
				}
				if errors.Is(err, pipeline.ErrRecordDeleted) {
					return userError(err)
				}
				return sysError(err)
			}
			return a.renderBoard(ctl.Collection(), "")
		},
	}
	cmd.Flags().Int64Var(&anchor, "anchor", 0, "drop onto this opportunity")
	cmd.Flags().StringVar(&position, "position", "below", "side of the anchor to land on: above or below")
	return cmd
}

// planMove replays the drag gesture for a command-line move: pick up id,
// then drop it on the anchor card or on the status column.
func planMove(coll *pipeline.Collection, id int64, status types.Status, anchor int64, pos pipeline.Position) (pipeline.Move, bool, error) {
	src, ok := coll.Find(id)
	if !ok {
		return pipeline.Move{}, false, userError(fmt.Errorf("opportunity %d: %w", id, types.ErrNotFound))
	}

	var s pipeline.Session
	s.BeginDrag(pipeline.DragItem{ID: src.ID, Status: src.Status})
	if anchor == 0 {
		m, ok := s.DropOnColumn(status)
		return m, ok, nil
	}

	target, ok := coll.Find(anchor)
	if !ok {
		s.End()
		return pipeline.Move{}, false, userError(fmt.Errorf("anchor opportunity %d: %w", anchor, types.ErrNotFound))
	}
	if status != "" && status != target.Status {
		s.End()
		return pipeline.Move{}, false, userError(fmt.Errorf("anchor %d is in %s, not %s", anchor, target.Status, status))
	}
	m, ok := s.DropAt(pipeline.DragItem{ID: target.ID, Status: target.Status}, pos)
	return m, ok, nil
}

// newController builds a board session over the server or the local store
// and loads the current opportunities.
func (a *app) newController(ctx context.Context, local bool, opts ...pipeline.Option) (*pipeline.Controller, func(), error) {
	var (
		gw   pipeline.Gateway
		done = func() {}
	)
	if local {
		s, err := a.openStore()
		if err != nil {
			return nil, nil, err
		}
		tbl, err := s.GetTable(types.TableOpportunities)
		if err != nil {
			s.Detach()
			return nil, nil, sysError(err)
		}
		gw = pipeline.TableGateway{Table: tbl}
		done = func() { s.Detach() }
	} else {
		timeout, err := a.duration(cfgKeyClientTimeout)
		if err != nil {
			return nil, nil, err
		}
		c, err := client.New(a.serverURL(), timeout)
		if err != nil {
			return nil, nil, userError(err)
		}
		gw = c
	}

	ctl := pipeline.NewController(a.log, gw, pipeline.NewCollection(nil), opts...)
	if err := ctl.Refresh(ctx); err != nil {
		done()
		if !local {
			return nil, nil, sysError(fmt.Errorf("%w (is `rolodex serve` running at %s?)", err, a.serverURL()))
		}
		return nil, nil, sysError(err)
	}
	return ctl, done, nil
}

func (a *app) renderBoard(coll *pipeline.Collection, only types.Status) error {
	cols := coll.Columns()
	if only != "" {
		cols = []pipeline.Column{{Status: only, Items: coll.Column(only)}}
	}
	if a.flags.jsonMode {
		out := make([]columnJSON, len(cols))
		for i, c := range cols {
			out[i] = columnJSON{Status: c.Status, Opportunities: c.Items}
		}
		return a.printJSON(out)
	}
	writeBoard(a.out, cols)
	return nil
}

func writeBoard(w io.Writer, cols []pipeline.Column) {
	for i, col := range cols {
		if i > 0 {
			fmt.Fprintln(w)
		}
		heading := string(col.Status)
		if c, ok := stageColors[col.Status]; ok {
			heading = c.Sprint(heading)
		}
		fmt.Fprintf(w, "%s (%d)\n", heading, len(col.Items))
		if len(col.Items) == 0 {
			fmt.Fprintln(w, "  (empty)")
			continue
		}
		for _, o := range col.Items {
			company := ""
			if o.Company != nil {
				company = o.Company.Name
			}
			line := fmt.Sprintf("  #%-4d %-32s %12s", o.ID, o.Name, o.Amount.StringFixed(2))
			if company != "" {
				line += "  " + company
			}
			if !o.CloseDate.IsZero() {
				line += "  closes " + o.CloseDate.String()
			}
			fmt.Fprintln(w, line)
		}
	}
}
