package cli

import (
	"encoding/json"
	"fmt"
)

func (a *app) printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(a.out, string(out))
	return nil
}
