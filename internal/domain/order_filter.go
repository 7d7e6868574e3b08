package domain

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultOrderLimit = 50
	MaxOrderLimit     = 500
)

// OrderFilter has AND semantics across fields, OR semantics within each field slice.
// An empty filter lists every order, newest first, one page at a time.
type OrderFilter struct {
	BuyerIDs  []string
	Statuses  []OrderStatus
	CreatedAt *TimeRange
	Limit     int
	Offset    int
}

func (f OrderFilter) Validate() error {
	if f.Limit < 0 || f.Limit > MaxOrderLimit {
		return fmt.Errorf("limit must be in [0, %d]", MaxOrderLimit)
	}

	if f.Offset < 0 {
		return errors.New("offset is negative")
	}

	for _, status := range f.Statuses {
		if _, err := ToOrderStatus(string(status)); err != nil {
			return fmt.Errorf("status[%s]: %w", status, err)
		}
	}

	if f.CreatedAt != nil {
		if err := f.CreatedAt.Validate(); err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
	}

	return nil
}

func (f OrderFilter) EffectiveLimit() int {
	if f.Limit == 0 {
		return DefaultOrderLimit
	}
	return f.Limit
}

type TimeRange struct {
	Before *time.Time
	After  *time.Time
}

func (t TimeRange) Validate() error {
	if t.Before == nil && t.After == nil {
		return errors.New("both Before and After are nil")
	}

	if t.Before != nil && t.After != nil {
		if t.Before.Before(*t.After) {
			return fmt.Errorf("before is before After")
		}
	}

	return nil
}
