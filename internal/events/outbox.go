package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event describes a billing event to store in the outbox. The dedupe key,
// when set, makes replays of the same logical event a no-op insert.
type Event struct {
	Type      string
	Payload   map[string]any
	DedupeKey string
}

// Outbox writes billing events into the billing_events table so downstream
// consumers can pick them up without losing writes that happen inside a
// service transaction.
type Outbox struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewOutbox(db *gorm.DB, genID *snowflake.Node) *Outbox {
	return &Outbox{db: db, genID: genID}
}

// Publish stores an event using the default database connection.
func (o *Outbox) Publish(ctx context.Context, event Event) error {
	return o.insert(ctx, o.db, event)
}

// PublishTx stores an event inside the caller's transaction, so the event
// row commits or rolls back together with the domain write.
func (o *Outbox) PublishTx(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return errors.New("missing_transaction")
	}
	return o.insert(ctx, tx, event)
}

func (o *Outbox) insert(ctx context.Context, db *gorm.DB, event Event) error {
	if o == nil || db == nil || o.genID == nil {
		return errors.New("outbox_unavailable")
	}

	eventType := strings.TrimSpace(event.Type)
	if eventType == "" {
		return errors.New("missing_event_type")
	}

	return db.WithContext(ctx).Exec(
		`INSERT INTO billing_events (id, event_type, payload, dedupe_key, published, created_at)
		 VALUES (?, ?, ?, ?, false, ?)
		 ON CONFLICT (dedupe_key) WHERE dedupe_key IS NOT NULL DO NOTHING`,
		o.genID.Generate(),
		eventType,
		sanitizePayload(event.Payload),
		dedupeValue(event.DedupeKey),
		time.Now().UTC(),
	).Error
}

func sanitizePayload(payload map[string]any) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for key, value := range payload {
		if strings.TrimSpace(key) == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// dedupeValue maps an empty key to NULL so the partial-unique dedupe
// constraint ignores events published without one.
func dedupeValue(key string) any {
	if trimmed := strings.TrimSpace(key); trimmed != "" {
		return trimmed
	}
	return nil
}
