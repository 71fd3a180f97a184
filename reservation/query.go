package reservation

import (
	"context"
	"strings"
	"time"

	"github.com/DevenGibbs/starter-restaurant-reservation/models"
)

// Lister is the read side of the reservation store used by list queries.
type Lister interface {
	ListAll(ctx context.Context) ([]models.Reservation, error)
	ListByDate(ctx context.Context, date string) ([]models.Reservation, error)
	ListByPhoneFragment(ctx context.Context, digits string) ([]models.Reservation, error)
}

// ListQuery selects reservations by date, by phone fragment, or not at all.
type ListQuery struct {
	Date         string
	MobileNumber string
}

// ParseListQuery accepts at most one of date and mobile_number.
func ParseListQuery(date, mobile string) (ListQuery, error) {
	date, mobile = strings.TrimSpace(date), strings.TrimSpace(mobile)
	if date != "" && mobile != "" {
		return ListQuery{}, Invalid("use either date or mobile_number, not both")
	}
	if date != "" {
		if _, err := time.Parse(dateLayout, date); err != nil {
			return ListQuery{}, Invalid("Invalid input(s): date")
		}
	}
	return ListQuery{Date: date, MobileNumber: mobile}, nil
}

// Run dispatches the query. Finished reservations on a date are returned
// as well; hiding them is left to the client.
func (q ListQuery) Run(ctx context.Context, l Lister) ([]models.Reservation, error) {
	switch {
	case q.Date != "":
		return l.ListByDate(ctx, q.Date)
	case q.MobileNumber != "":
		return l.ListByPhoneFragment(ctx, models.DigitsOnly(q.MobileNumber))
	default:
		return l.ListAll(ctx)
	}
}
