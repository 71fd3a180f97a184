package reservation

import (
	"context"

	"github.com/DevenGibbs/starter-restaurant-reservation/models"
)

// Request is the state threaded through a chain of steps. Each step reads
// what earlier steps produced and may add to it.
type Request struct {
	ID      uint
	RawID   string
	Payload map[string]any
	Input   *Input
	Record  *models.Reservation
	Status  Status
}

// Step is one pre-condition of a reservation operation. A non-nil error
// ends the chain.
type Step func(ctx context.Context, r *Request) error

type Pipeline []Step

func (p Pipeline) Run(ctx context.Context, r *Request) error {
	for _, step := range p {
		if err := step(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Finder resolves a reservation by id; a miss is reported as a NotFound error.
type Finder interface {
	FindByID(ctx context.Context, id uint) (*models.Reservation, error)
}

// Exists resolves r.ID once and stores the record for later steps.
func Exists(f Finder) Step {
	return func(ctx context.Context, r *Request) error {
		if r.Record != nil {
			return nil
		}
		if r.ID == 0 {
			return NotFound("Reservation %s cannot be found.", r.RawID)
		}
		rec, err := f.FindByID(ctx, r.ID)
		if err != nil {
			return err
		}
		r.Record = rec
		return nil
	}
}

// NotFinished blocks any mutation of a finished reservation.
func NotFinished() Step {
	return func(_ context.Context, r *Request) error {
		if r.Record != nil && Status(r.Record.Status) == Finished {
			return Rule("a finished reservation cannot be updated")
		}
		return nil
	}
}

func Fields(rules Rules) Step {
	return func(_ context.Context, r *Request) error {
		in, err := rules.ValidateFields(r.Payload)
		if err != nil {
			return err
		}
		r.Input = in
		return nil
	}
}

func InitialStatus() Step {
	return func(_ context.Context, r *Request) error {
		return CheckInitialStatus(r.Input)
	}
}

func Schedule(rules Rules) Step {
	return func(_ context.Context, r *Request) error {
		return rules.CheckSchedule(r.Input)
	}
}

// StatusChange validates a status-only update against the resolved record.
func StatusChange() Step {
	return func(_ context.Context, r *Request) error {
		if Status(r.Record.Status) == Finished {
			return Rule("a finished reservation cannot be updated")
		}
		s, err := ParseStatus(r.Payload["status"])
		if err != nil {
			return err
		}
		if err := Transition(Status(r.Record.Status), s); err != nil {
			return err
		}
		r.Status = s
		return nil
	}
}

// FullUpdateStatus validates a status carried inside a full-record update.
func FullUpdateStatus() Step {
	return func(_ context.Context, r *Request) error {
		if !r.Input.HasStatus {
			return nil
		}
		return Transition(Status(r.Record.Status), r.Input.Status)
	}
}

func CreateChain(rules Rules) Pipeline {
	return Pipeline{Fields(rules), InitialStatus(), Schedule(rules)}
}

func ReadChain(f Finder) Pipeline {
	return Pipeline{Exists(f)}
}

func UpdateChain(f Finder, rules Rules) Pipeline {
	return Pipeline{Exists(f), NotFinished(), Fields(rules), FullUpdateStatus(), Schedule(rules)}
}

func StatusChain(f Finder) Pipeline {
	return Pipeline{Exists(f), StatusChange()}
}

func DeleteChain(f Finder) Pipeline {
	return Pipeline{Exists(f)}
}
