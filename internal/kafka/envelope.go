package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/bookstore/internal/domain"
)

// Envelope is the wire format of every event on the topic.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Source     string          `json:"source"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type BookPayload struct {
	BookID string `json:"book_id"`
	Delta  int    `json:"delta,omitempty"`
}

type OrderPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	BuyerID     string `json:"buyer_id"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
}

func NewEnvelope(source string, e domain.Event) (Envelope, error) {
	var payload any

	if e.OrderID != uuid.Nil {
		payload = OrderPayload{
			OrderID:     e.OrderID.String(),
			OrderNumber: e.OrderNumber,
			BuyerID:     e.BuyerID,
			From:        string(e.From),
			To:          string(e.To),
		}
	} else {
		payload = BookPayload{
			BookID: e.BookID.String(),
			Delta:  e.Delta,
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("json.Marshal: %w", err)
	}

	return Envelope{
		ID:         e.ID.String(),
		Type:       string(e.Type),
		Source:     source,
		OccurredAt: e.OccurredAt,
		Payload:    raw,
	}, nil
}

func UnmarshalEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return env, nil
}

// UnwrapPayload decodes the payload into the type matching Envelope.Type.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
