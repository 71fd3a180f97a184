package reservation

import "fmt"

type Status string

const (
	Booked    Status = "booked"
	Seated    Status = "seated"
	Finished  Status = "finished"
	Cancelled Status = "cancelled"
)

// Statuses lists every known status in lifecycle order.
func Statuses() []Status {
	return []Status{Booked, Seated, Finished, Cancelled}
}

// transitions is the enforced rule: anything may follow a non-finished
// status, nothing may follow finished.
var transitions = map[Status][]Status{
	Booked:    {Booked, Seated, Finished, Cancelled},
	Seated:    {Booked, Seated, Finished, Cancelled},
	Cancelled: {Booked, Seated, Finished, Cancelled},
	Finished:  {},
}

// nominal holds the edges a well-behaved client asks for.
var nominal = map[Status][]Status{
	Booked: {Seated, Cancelled},
	Seated: {Finished, Cancelled},
}

func contains(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// ReleasesTable reports whether a reservation in s no longer holds a table.
func (s Status) ReleasesTable() bool {
	return s == Finished || s == Cancelled
}

// ParseStatus converts a raw payload value into a Status.
func ParseStatus(v any) (Status, error) {
	str, ok := v.(string)
	if !ok {
		return "", Rule("invalid status: %s", quoteAny(v))
	}
	s := Status(str)
	if !s.Valid() {
		return "", Rule("invalid status: %q", str)
	}
	return s, nil
}

func CanTransition(from, to Status) bool {
	return contains(transitions[from], to)
}

func IsNominal(from, to Status) bool {
	return contains(nominal[from], to)
}

// Transition validates moving a reservation from one status to another.
func Transition(from, to Status) error {
	if !to.Valid() {
		return Rule("invalid status: %q", string(to))
	}
	if !CanTransition(from, to) {
		if from == Finished {
			return Rule("a finished reservation cannot be updated")
		}
		return Rule("cannot change status from %q to %q", from, to)
	}
	return nil
}

func quoteAny(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%q", fmt.Sprint(v))
}
