package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action tags a history entry.
type Action string

const (
	ActionCreated        Action = "CREATED"
	ActionUpdated        Action = "UPDATED"
	ActionStatusChanged  Action = "STATUS_CHANGED"
	ActionDocumentAdded  Action = "DOCUMENT_ADDED"
	ActionIndicatorAdded Action = "INDICATOR_ADDED"
)

// Changes is the payload of a history entry. Each action has its own concrete type;
// all of them serialize to the open object shape clients already consume.
type Changes interface {
	Action() Action
}

// CreatedChanges snapshots the defining attributes of a new convention.
type CreatedChanges struct {
	Type string `json:"type"`
}

func (CreatedChanges) Action() Action { return ActionCreated }

// FieldChange is one {from, to} pair of an update diff.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// UpdatedChanges holds the per-field diff of an update. It may be empty.
type UpdatedChanges struct {
	Fields map[string]FieldChange
}

func (UpdatedChanges) Action() Action { return ActionUpdated }

func (u UpdatedChanges) MarshalJSON() ([]byte, error) {
	if u.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(u.Fields)
}

func (u *UpdatedChanges) UnmarshalJSON(data []byte) error {
	fields := map[string]FieldChange{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	u.Fields = fields
	return nil
}

type StatusChange struct {
	From Status `json:"from"`
	To   Status `json:"to"`
}

func (StatusChange) Action() Action { return ActionStatusChanged }

type DocumentAdded struct {
	DocumentID uuid.UUID `json:"documentId"`
}

func (DocumentAdded) Action() Action { return ActionDocumentAdded }

type IndicatorAdded struct {
	IndicatorID uuid.UUID `json:"indicatorId"`
}

func (IndicatorAdded) Action() Action { return ActionIndicatorAdded }

// RawChanges keeps the payload of actions this build does not know about.
type RawChanges struct {
	Kind    Action
	Payload json.RawMessage
}

func (r RawChanges) Action() Action { return r.Kind }

func (r RawChanges) MarshalJSON() ([]byte, error) {
	if len(r.Payload) == 0 {
		return []byte("{}"), nil
	}
	return r.Payload, nil
}

// HistoryEntry is one immutable audit record of a convention.
type HistoryEntry struct {
	Action    Action
	UserID    uuid.UUID
	Changes   Changes
	Timestamp time.Time
}

type historyEntryWire struct {
	Action    Action          `json:"action"`
	UserID    uuid.UUID       `json:"userId"`
	Changes   json.RawMessage `json:"changes"`
	Timestamp time.Time       `json:"timestamp"`
}

func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	changes, err := MarshalChanges(h.Changes)
	if err != nil {
		return nil, err
	}
	return json.Marshal(historyEntryWire{
		Action:    h.Action,
		UserID:    h.UserID,
		Changes:   changes,
		Timestamp: h.Timestamp,
	})
}

func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var wire historyEntryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	changes, err := UnmarshalChanges(wire.Action, wire.Changes)
	if err != nil {
		return err
	}
	*h = HistoryEntry{
		Action:    wire.Action,
		UserID:    wire.UserID,
		Changes:   changes,
		Timestamp: wire.Timestamp,
	}
	return nil
}

// MarshalChanges encodes a payload in its wire shape. A nil payload encodes as {}.
func MarshalChanges(c Changes) (json.RawMessage, error) {
	if c == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(c)
}

// UnmarshalChanges decodes a wire payload into the concrete type for action.
func UnmarshalChanges(action Action, data json.RawMessage) (Changes, error) {
	if len(data) == 0 || string(data) == "null" {
		data = json.RawMessage("{}")
	}
	var (
		out Changes
		err error
	)
	switch action {
	case ActionCreated:
		var c CreatedChanges
		err = json.Unmarshal(data, &c)
		out = c
	case ActionUpdated:
		var c UpdatedChanges
		err = json.Unmarshal(data, &c)
		out = c
	case ActionStatusChanged:
		var c StatusChange
		err = json.Unmarshal(data, &c)
		out = c
	case ActionDocumentAdded:
		var c DocumentAdded
		err = json.Unmarshal(data, &c)
		out = c
	case ActionIndicatorAdded:
		var c IndicatorAdded
		err = json.Unmarshal(data, &c)
		out = c
	default:
		out = RawChanges{Kind: action, Payload: append(json.RawMessage(nil), data...)}
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s changes: %w", action, err)
	}
	return out, nil
}

// UserSummary is the display projection of a user.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

// HistoryView is a history entry with its actor resolved for display.
type HistoryView struct {
	Action    Action      `json:"action"`
	User      UserSummary `json:"userId"`
	Changes   Changes     `json:"changes"`
	Timestamp time.Time   `json:"timestamp"`
}

// ActivityEntry is a history entry located in its convention, used by the admin feed.
type ActivityEntry struct {
	ConventionID uuid.UUID    `json:"conventionId"`
	EnterpriseID uuid.UUID    `json:"enterpriseId"`
	Entry        HistoryEntry `json:"entry"`
}
