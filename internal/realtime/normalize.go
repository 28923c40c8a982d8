package realtime

import (
	"encoding/json"
	"time"

	"github.com/narravid/narravid-go/internal/uuid"
)

// Kind tags a normalised broadcast event.
type Kind string

const (
	KindInsert      Kind = "inserted"
	KindUpdate      Kind = "updated"
	KindDelete      Kind = "deleted"
	KindUnparseable Kind = "unparseable"
)

// Row is a best-effort partial row extracted from a broadcast payload. Every
// field is a pointer so merge logic can tell "absent" from "zero": the
// backend does not guarantee full-row payloads on broadcast.
type Row struct {
	ID           *string    `json:"id"`
	UserID       *string    `json:"user_id"`
	Prompt       *string    `json:"prompt"`
	Status       *string    `json:"status"`
	BucketPath   *string    `json:"bucket_path"`
	Duration     *float64   `json:"duration"`
	CreatedAt    *time.Time `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	ErrorMessage *string    `json:"error_message"`
	Balance      *float64   `json:"balance"`
}

// RecordID parses the row's id, if any.
func (r *Row) RecordID() (uuid.UUID, bool) {
	if r == nil || r.ID == nil {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(*r.ID)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// Event is the tagged union produced by Normalize:
// insert/update carry a partial Row, delete carries the record id only, and
// unparseable keeps the raw payload for diagnostics.
type Event struct {
	Kind Kind
	Row  *Row
	ID   uuid.UUID
	Raw  []byte
}

// envelope covers the payload shapes the transport is known to deliver: the
// row nested under record/old_record, the same envelope nested once more
// under payload, or the message itself resembling the row.
type envelope struct {
	Type      string          `json:"type"`
	Event     string          `json:"event"`
	Record    json.RawMessage `json:"record"`
	OldRecord json.RawMessage `json:"old_record"`
	Payload   json.RawMessage `json:"payload"`
}

// Normalize turns one raw broadcast payload into a normalised event. It is a
// pure function and never panics on hostile input; anything it cannot make
// sense of comes back as KindUnparseable for the caller to log and drop.
func Normalize(raw []byte) Event {
	kind, row := walk(raw, 0)
	if kind == KindUnparseable {
		return Event{Kind: KindUnparseable, Raw: raw}
	}

	if kind == KindDelete {
		id, ok := row.RecordID()
		if !ok {
			return Event{Kind: KindUnparseable, Raw: raw}
		}
		return Event{Kind: KindDelete, ID: id}
	}

	if _, ok := row.RecordID(); !ok {
		return Event{Kind: KindUnparseable, Raw: raw}
	}
	return Event{Kind: kind, Row: row}
}

const maxEnvelopeDepth = 3

func walk(raw []byte, depth int) (Kind, *Row) {
	if depth > maxEnvelopeDepth {
		return KindUnparseable, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return KindUnparseable, nil
	}

	kind := kindOf(env.Type)
	if kind == "" {
		kind = kindOf(env.Event)
	}

	// The actual row may sit under record, old_record (deletes), one level
	// down under payload, or be the message itself.
	if kind != "" {
		if rowRaw := pickRow(env, kind); rowRaw != nil {
			if row := parseRow(rowRaw); row != nil {
				return kind, row
			}
			return KindUnparseable, nil
		}
		if len(env.Payload) > 0 {
			var nested envelope
			if err := json.Unmarshal(env.Payload, &nested); err == nil {
				if rowRaw := pickRow(nested, kind); rowRaw != nil {
					if row := parseRow(rowRaw); row != nil {
						return kind, row
					}
					return KindUnparseable, nil
				}
			}
			if row := parseRow(env.Payload); row != nil && row.ID != nil {
				return kind, row
			}
		}
		// Last resort: the envelope itself carries the columns.
		if row := parseRow(raw); row != nil && row.ID != nil {
			return kind, row
		}
		return KindUnparseable, nil
	}

	if len(env.Payload) > 0 {
		return walk(env.Payload, depth+1)
	}
	return KindUnparseable, nil
}

func pickRow(env envelope, kind Kind) json.RawMessage {
	if kind == KindDelete && len(env.OldRecord) > 0 {
		return env.OldRecord
	}
	if len(env.Record) > 0 {
		return env.Record
	}
	return nil
}

func parseRow(raw json.RawMessage) *Row {
	var row Row
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil
	}
	return &row
}

func kindOf(s string) Kind {
	switch s {
	case "INSERT", "insert", "inserted":
		return KindInsert
	case "UPDATE", "update", "updated":
		return KindUpdate
	case "DELETE", "delete", "deleted":
		return KindDelete
	default:
		return ""
	}
}
