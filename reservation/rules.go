package reservation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)(:[0-5]\d)?$`)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return Clock{}, fmt.Errorf("invalid clock %q, want HH:MM", s)
	}
	var c Clock
	fmt.Sscanf(m[1]+" "+m[2], "%d %d", &c.Hour, &c.Minute)
	return c, nil
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

// Rules holds the restaurant's scheduling policy. All date arithmetic
// happens in Location.
type Rules struct {
	Location  *time.Location
	ClosedDay time.Weekday
	OpensAt   Clock
	ClosesAt  Clock
	Now       func() time.Time
}

// DefaultRules returns the house policy: closed on Tuesdays, service
// from 10:30 to 21:30.
func DefaultRules(loc *time.Location) Rules {
	return Rules{
		Location:  loc,
		ClosedDay: time.Tuesday,
		OpensAt:   Clock{10, 30},
		ClosesAt:  Clock{21, 30},
		Now:       time.Now,
	}
}

func (r Rules) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

func (r Rules) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Input is a reservation payload that passed field validation.
type Input struct {
	FirstName    string
	LastName     string
	MobileNumber string
	Date         string
	Time         string
	People       int
	Status       Status
	HasStatus    bool
}

var requiredFields = []string{
	"first_name",
	"last_name",
	"mobile_number",
	"reservation_date",
	"reservation_time",
	"people",
}

var allowedFields = map[string]bool{
	"id":               true,
	"reservation_id":   true,
	"first_name":       true,
	"last_name":        true,
	"mobile_number":    true,
	"reservation_date": true,
	"reservation_time": true,
	"people":           true,
	"status":           true,
	"created_at":       true,
	"updated_at":       true,
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// ValidateFields checks the shape of a submitted payload: no unknown keys,
// every required field present, and parseable people/date/time values.
func (r Rules) ValidateFields(payload map[string]any) (*Input, error) {
	var extra []string
	for k := range payload {
		if !allowedFields[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, Invalid("Invalid field(s): %s", strings.Join(extra, ", "))
	}

	var missing []string
	for _, f := range requiredFields {
		if isEmpty(payload[f]) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, Invalid("Missing required field(s): %s", strings.Join(missing, ", "))
	}

	in := &Input{}
	var bad []string
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"first_name", &in.FirstName},
		{"last_name", &in.LastName},
		{"mobile_number", &in.MobileNumber},
	} {
		s, ok := payload[f.key].(string)
		if !ok {
			bad = append(bad, f.key)
			continue
		}
		*f.dst = strings.TrimSpace(s)
	}

	if n, ok := WholeNumber(payload["people"]); ok && n > 0 {
		in.People = n
	} else {
		bad = append(bad, "people")
	}

	if s, ok := payload["reservation_date"].(string); ok && r.validDate(s) {
		in.Date = s
	} else {
		bad = append(bad, "reservation_date")
	}

	if s, ok := payload["reservation_time"].(string); ok && timePattern.MatchString(s) {
		in.Time = s[:5]
	} else {
		bad = append(bad, "reservation_time")
	}

	if len(bad) > 0 {
		return nil, Invalid("Invalid input(s): %s", strings.Join(bad, ", "))
	}

	if v, ok := payload["status"]; ok && v != nil {
		s, err := ParseStatus(v)
		if err != nil {
			return nil, err
		}
		in.Status, in.HasStatus = s, true
	}
	return in, nil
}

func (r Rules) validDate(s string) bool {
	_, err := time.ParseInLocation(dateLayout, s, r.location())
	return err == nil
}

// WholeNumber accepts JSON numbers only; numeric-looking strings are rejected.
func WholeNumber(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil || i > math.MaxInt32 || i < math.MinInt32 {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

// When returns the reservation's date and time in the restaurant's zone.
func (r Rules) When(date, clock string) (time.Time, error) {
	return time.ParseInLocation(dateLayout+" 15:04", date+" "+clock[:5], r.location())
}

// CheckSchedule applies the business rules in priority order; the first
// violated rule is reported.
func (r Rules) CheckSchedule(in *Input) error {
	when, err := r.When(in.Date, in.Time)
	if err != nil {
		return Invalid("Invalid input(s): reservation_date, reservation_time")
	}
	if when.Weekday() == r.ClosedDay {
		return Rule("Restaurant is closed on %ss", r.ClosedDay)
	}
	if !when.After(r.now().In(r.location())) {
		return Rule("Reservation must be in the future")
	}
	m := when.Hour()*60 + when.Minute()
	if m < r.OpensAt.minutes() || m > r.ClosesAt.minutes() {
		return Rule("Reservation time must be between %s and %s", r.OpensAt, r.ClosesAt)
	}
	return nil
}

// CheckInitialStatus rejects a create request that asks for any status
// other than booked.
func CheckInitialStatus(in *Input) error {
	if in.HasStatus && in.Status != Booked {
		return Rule("status must be %q when creating a reservation, got %q", Booked, in.Status)
	}
	return nil
}
