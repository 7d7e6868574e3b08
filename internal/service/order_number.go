package service

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const orderNumberLayout = "20060102150405"

// OrderNumberFunc produces a candidate order number; uniqueness is checked by the caller.
type OrderNumberFunc func() string

// NewOrderNumber is "ORD", the local timestamp to the second and four random digits,
// e.g. ORD202401311530450042.
func NewOrderNumber() string {
	return formatOrderNumber(time.Now(), rand.IntN(10000))
}

func formatOrderNumber(t time.Time, suffix int) string {
	return fmt.Sprintf("ORD%s%04d", t.Format(orderNumberLayout), suffix)
}
