// internal/domain/models/outbox.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Outbox message statuses.
const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// OutboxMessage is an email intent written alongside the state change
// that caused it. A background dispatcher performs the actual delivery,
// so a delivery failure can be retried instead of silently lost.
type OutboxMessage struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	To       string             `bson:"to" json:"to"`
	Subject  string             `bson:"subject" json:"subject"`
	TextBody string             `bson:"text_body" json:"text_body"`
	HTMLBody string             `bson:"html_body,omitempty" json:"html_body,omitempty"`

	Status    string     `bson:"status" json:"status"`
	Attempts  int        `bson:"attempts" json:"attempts"`
	LastError string     `bson:"last_error,omitempty" json:"last_error,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	SentAt    *time.Time `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
}

// Notification is an in-portal notification document.
type Notification struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`
	Kind    string             `bson:"kind" json:"kind"`
	Subject string             `bson:"subject" json:"subject"`
	Body    string             `bson:"body,omitempty" json:"body,omitempty"`
	Read    bool               `bson:"read" json:"read"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
