package core

// format.go renders resolved values as CSV cells. Every cell is wrapped in
// double quotes unconditionally, with embedded quotes doubled, so emitted
// documents never depend on content-sniffing quote rules.

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// formatCell renders a resolved value as a quoted CSV cell.
//
// Values that are still structured after resolution (a column's path can
// terminate inside a shape a later record does not share) are rendered as
// their JSON text. A leaf that is explicitly null renders as the literal
// text null; a path that did not resolve at all renders as an empty cell.
func formatCell(v any, found bool) string {
	if !found {
		return `""`
	}

	var s string
	switch val := v.(type) {
	case nil:
		s = "null"
	case string:
		s = val
	case json.Number:
		s = val.String()
	case bool:
		s = strconv.FormatBool(val)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		s = strconv.Itoa(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	case *Record, []any:
		b, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprint(val)
		} else {
			s = string(b)
		}
	default:
		s = fmt.Sprint(val)
	}

	return quoteCell(s)
}

// quoteCell doubles embedded quotes and wraps the cell in exactly one outer
// pair of quotes.
func quoteCell(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
