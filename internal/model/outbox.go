package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/richardliu001/ticket-service/internal/domain"
)

// OutboxEvent is the durable record of one domain event. ID is the domain event id.
// Published only ever moves from false to true.
type OutboxEvent struct {
	ID            string    `gorm:"primaryKey;size:36"`
	AggregateID   string    `gorm:"size:36;not null"`
	Kind          string    `gorm:"size:64;not null"`
	Payload       string    `gorm:"type:text;not null"`
	Published     bool      `gorm:"not null;default:false;index:ix_outbox_pending,priority:1"`
	CreatedAt     time.Time `gorm:"not null;index:ix_outbox_pending,priority:2"`
	PublishedAt   *time.Time
	Attempts      int     `gorm:"not null;default:0"`
	LastError     *string `gorm:"type:text"`
	NextAttemptAt *time.Time
}

func (OutboxEvent) TableName() string { return "outbox" }

// Envelope is the document written to the outbox and sent downstream.
type Envelope struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	AggregateID string          `json:"aggregateId"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Data        json.RawMessage `json:"data"`
}

// NewOutboxEvent serializes a domain event into an unpublished outbox row.
func NewOutboxEvent(evt domain.DomainEvent) (OutboxEvent, error) {
	data, err := json.Marshal(evt.Data)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("marshal %s data: %w", evt.Kind, err)
	}
	payload, err := json.Marshal(Envelope{
		ID:          evt.ID,
		Kind:        string(evt.Kind),
		AggregateID: evt.AggregateID,
		OccurredAt:  evt.OccurredAt,
		Data:        data,
	})
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("marshal %s envelope: %w", evt.Kind, err)
	}
	return OutboxEvent{
		ID:          evt.ID,
		AggregateID: evt.AggregateID,
		Kind:        string(evt.Kind),
		Payload:     string(payload),
		CreatedAt:   evt.OccurredAt,
	}, nil
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.ID == "" || env.Kind == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing id or kind")
	}
	return env, nil
}
