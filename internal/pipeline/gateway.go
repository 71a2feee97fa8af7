package pipeline

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// TableGateway serves a Controller straight from the opportunities table,
// for sessions that run beside the store rather than over HTTP.
type TableGateway struct {
	Table types.Table
}

func (g TableGateway) ListOpportunities(ctx context.Context) ([]types.Opportunity, error) {
	recs, err := g.Table.Fetch(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]types.Opportunity, 0, len(recs))
	for _, rec := range recs {
		o, ok := rec.(*types.Opportunity)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected record %T", types.ErrInvalidData, rec)
		}
		out = append(out, *o)
	}
	return out, nil
}

func (g TableGateway) PatchOpportunity(ctx context.Context, id int64, patch types.OpportunityPatch) (*types.Opportunity, error) {
	rec, err := g.Table.Patch(ctx, id, &patch)
	if err != nil {
		return nil, err
	}
	o, ok := rec.(*types.Opportunity)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected record %T", types.ErrInvalidData, rec)
	}
	return o, nil
}
