package reservation

import (
	"sort"
	"strings"
)

// TableInput is a table payload that passed field validation.
type TableInput struct {
	Name          string
	Capacity      int
	ReservationID *uint
}

var tableFields = map[string]bool{
	"table_id":       true,
	"table_name":     true,
	"capacity":       true,
	"reservation_id": true,
	"created_at":     true,
	"updated_at":     true,
}

// ValidateTable checks a new table: a name of at least two characters, a
// positive capacity and, optionally, a reservation to seat right away.
func ValidateTable(payload map[string]any) (*TableInput, error) {
	var extra []string
	for k := range payload {
		if !tableFields[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, Invalid("Invalid field(s): %s", strings.Join(extra, ", "))
	}

	var missing []string
	for _, f := range []string{"table_name", "capacity"} {
		if isEmpty(payload[f]) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, Invalid("Missing required field(s): %s", strings.Join(missing, ", "))
	}

	in := &TableInput{}
	var bad []string
	if s, ok := payload["table_name"].(string); ok && len([]rune(strings.TrimSpace(s))) >= 2 {
		in.Name = strings.TrimSpace(s)
	} else {
		bad = append(bad, "table_name")
	}
	if n, ok := WholeNumber(payload["capacity"]); ok && n > 0 {
		in.Capacity = n
	} else {
		bad = append(bad, "capacity")
	}
	if v, ok := payload["reservation_id"]; ok && v != nil {
		if n, ok := WholeNumber(v); ok && n > 0 {
			id := uint(n)
			in.ReservationID = &id
		} else {
			bad = append(bad, "reservation_id")
		}
	}
	if len(bad) > 0 {
		return nil, Invalid("Invalid input(s): %s", strings.Join(bad, ", "))
	}
	return in, nil
}

// ValidateSeat reads the reservation id from a seat request.
func ValidateSeat(payload map[string]any) (uint, error) {
	v, ok := payload["reservation_id"]
	if !ok || isEmpty(v) {
		return 0, Invalid("Missing required field(s): reservation_id")
	}
	n, ok := WholeNumber(v)
	if !ok || n <= 0 {
		return 0, Invalid("Invalid input(s): reservation_id")
	}
	return uint(n), nil
}
