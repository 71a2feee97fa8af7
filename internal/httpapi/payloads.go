package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

const maxBodyBytes = 1 << 20

type CompanyIn struct {
	Name         *string `json:"name"`
	Website      *string `json:"website"`
	Headquarters *string `json:"headquarters"`
	Status       *string `json:"status"`
}

type PersonIn struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	CompanyID *int64  `json:"companyId"` // 0 detaches the person
}

type OpportunityIn struct {
	Name      *string          `json:"name"`
	Amount    *decimal.Decimal `json:"amount"`
	CompanyID *int64           `json:"companyId"`
	CloseDate *types.Date      `json:"closeDate"`
	Status    *string          `json:"status"`
	Progress  *float64         `json:"progress"`
}

// patch converts the payload to a store patch. The status string is
// validated here so the error can list the valid stages.
func (in OpportunityIn) patch() (types.OpportunityPatch, error) {
	p := types.OpportunityPatch{
		Name:      in.Name,
		Amount:    in.Amount,
		CompanyID: in.CompanyID,
		CloseDate: in.CloseDate,
		Progress:  in.Progress,
	}
	if in.Status != nil {
		s, err := types.ParseStatus(*in.Status)
		if err != nil {
			return p, err
		}
		p.Status = &s
	}
	return p, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return nil
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func parsePositive(v string, allowZero bool) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 || (n == 0 && !allowZero) {
		return 0, fmt.Errorf("%w: %q is not a valid number", types.ErrInvalidFilter, v)
	}
	return n, nil
}

func trimmed(s string) string { return strings.TrimSpace(s) }
