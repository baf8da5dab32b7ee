package domain

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a convention.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusActive     Status = "ACTIVE"
	StatusSuspended  Status = "SUSPENDED"
	StatusExpired    Status = "EXPIRED"
	StatusTerminated Status = "TERMINATED"
)

var conventionStatuses = []Status{StatusDraft, StatusActive, StatusSuspended, StatusExpired, StatusTerminated}

func (s Status) Valid() bool {
	for _, known := range conventionStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// SystemUserID is the actor recorded for mutations made by the service itself.
var SystemUserID = uuid.Nil

// Metadata carries attribution of a convention.
type Metadata struct {
	CreatedBy      uuid.UUID `json:"createdBy"`
	LastModifiedBy uuid.UUID `json:"lastModifiedBy"`
}

// Convention is a time-bounded compliance agreement between the authority and an enterprise.
type Convention struct {
	ID           uuid.UUID      `json:"id"`
	EnterpriseID uuid.UUID      `json:"enterpriseId"`
	SignedDate   time.Time      `json:"signedDate"`
	StartDate    time.Time      `json:"startDate"`
	EndDate      time.Time      `json:"endDate"`
	Type         string         `json:"type"`
	Advantages   any            `json:"advantages"`
	Obligations  any            `json:"obligations"`
	Status       Status         `json:"status"`
	Documents    []uuid.UUID    `json:"documents"`
	Indicators   []uuid.UUID    `json:"indicators"`
	History      []HistoryEntry `json:"history"`
	Metadata     Metadata       `json:"metadata"`
	Version      int64          `json:"version"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ConventionInput holds the attributes supplied at creation.
type ConventionInput struct {
	EnterpriseID uuid.UUID
	SignedDate   time.Time
	StartDate    time.Time
	EndDate      time.Time
	Type         string
	Advantages   any
	Obligations  any
	Status       Status
}

// NewConvention validates in and builds a convention carrying its CREATED entry.
func NewConvention(id uuid.UUID, in ConventionInput, actor uuid.UUID, now time.Time) (Convention, error) {
	if in.EnterpriseID == uuid.Nil {
		return Convention{}, Validation("enterpriseId is required")
	}
	in.Type = strings.TrimSpace(in.Type)
	if in.Type == "" {
		return Convention{}, Validation("type is required")
	}
	if in.SignedDate.IsZero() || in.StartDate.IsZero() || in.EndDate.IsZero() {
		return Convention{}, Validation("signedDate, startDate and endDate are required")
	}
	if in.Status == "" {
		in.Status = StatusActive
	}
	if !in.Status.Valid() {
		return Convention{}, Validation("unknown status %q", in.Status)
	}
	c := Convention{
		ID:           id,
		EnterpriseID: in.EnterpriseID,
		SignedDate:   DateOf(in.SignedDate),
		StartDate:    DateOf(in.StartDate),
		EndDate:      DateOf(in.EndDate),
		Type:         in.Type,
		Advantages:   in.Advantages,
		Obligations:  in.Obligations,
		Status:       in.Status,
		Documents:    []uuid.UUID{},
		Indicators:   []uuid.UUID{},
		History:      []HistoryEntry{},
		Metadata:     Metadata{CreatedBy: actor, LastModifiedBy: actor},
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	if err := c.checkWindow(); err != nil {
		return Convention{}, err
	}
	c.Record(actor, CreatedChanges{Type: c.Type}, now)
	return c, nil
}

// Record appends an audit entry and attributes the convention to userID.
// It only touches the in-memory value; persisting it is the caller's job.
func (c *Convention) Record(userID uuid.UUID, changes Changes, at time.Time) HistoryEntry {
	entry := HistoryEntry{
		Action:    changes.Action(),
		UserID:    userID,
		Changes:   changes,
		Timestamp: at.UTC(),
	}
	c.History = append(c.History, entry)
	c.Metadata.LastModifiedBy = userID
	return entry
}

func (c Convention) checkWindow() error {
	if c.StartDate.After(c.EndDate) {
		return Validation("startDate must not be after endDate")
	}
	return nil
}

// IsActiveAt reports whether the convention is ACTIVE and t's calendar day lies
// within [StartDate, EndDate], both ends inclusive.
func (c Convention) IsActiveAt(t time.Time) bool {
	if c.Status != StatusActive {
		return false
	}
	day := DateOf(t)
	return !day.Before(c.StartDate) && !day.After(c.EndDate)
}

// DaysRemaining is ceil((EndDate - now) / 24h). Negative once the end date has passed.
func (c Convention) DaysRemaining(now time.Time) int {
	return int(math.Ceil(c.EndDate.Sub(now).Hours() / 24))
}

// ApplyUpdate diffs the submitted fields against the stored values and applies them.
// On error the convention is left untouched.
func (c *Convention) ApplyUpdate(fields map[string]json.RawMessage) (UpdatedChanges, error) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	next := *c
	changes := map[string]FieldChange{}
	for _, key := range keys {
		codec, ok := updatableFields[key]
		if !ok {
			return UpdatedChanges{}, Validation("field %q cannot be updated", key)
		}
		value, apply, err := codec.decode(fields[key])
		if err != nil {
			return UpdatedChanges{}, Validation("invalid %s: %v", key, err)
		}
		current := codec.current(&next)
		if !reflect.DeepEqual(current, value) {
			changes[key] = FieldChange{From: current, To: value}
		}
		apply(&next)
	}
	if err := next.checkWindow(); err != nil {
		return UpdatedChanges{}, err
	}
	*c = next
	return UpdatedChanges{Fields: changes}, nil
}

type fieldCodec struct {
	// current returns the stored value in the same normalized form decode produces.
	current func(c *Convention) any
	decode  func(raw json.RawMessage) (any, func(c *Convention), error)
}

var updatableFields = map[string]fieldCodec{
	"enterpriseId": {
		current: func(c *Convention) any { return c.EnterpriseID.String() },
		decode: func(raw json.RawMessage) (any, func(*Convention), error) {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, nil, err
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, nil, err
			}
			return id.String(), func(c *Convention) { c.EnterpriseID = id }, nil
		},
	},
	"type": {
		current: func(c *Convention) any { return c.Type },
		decode: func(raw json.RawMessage) (any, func(*Convention), error) {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, nil, err
			}
			s = strings.TrimSpace(s)
			if s == "" {
				return nil, nil, errEmpty
			}
			return s, func(c *Convention) { c.Type = s }, nil
		},
	},
	"status": {
		current: func(c *Convention) any { return string(c.Status) },
		decode: func(raw json.RawMessage) (any, func(*Convention), error) {
			var s Status
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, nil, err
			}
			if !s.Valid() {
				return nil, nil, errUnknownStatus
			}
			return string(s), func(c *Convention) { c.Status = s }, nil
		},
	},
	"signedDate":  dateField(func(c *Convention) *time.Time { return &c.SignedDate }),
	"startDate":   dateField(func(c *Convention) *time.Time { return &c.StartDate }),
	"endDate":     dateField(func(c *Convention) *time.Time { return &c.EndDate }),
	"advantages":  jsonField(func(c *Convention) *any { return &c.Advantages }),
	"obligations": jsonField(func(c *Convention) *any { return &c.Obligations }),
}

type fieldError string

func (e fieldError) Error() string { return string(e) }

const (
	errEmpty         = fieldError("must not be empty")
	errUnknownStatus = fieldError("unknown status")
)

func dateField(ref func(c *Convention) *time.Time) fieldCodec {
	return fieldCodec{
		current: func(c *Convention) any { return FormatDate(*ref(c)) },
		decode: func(raw json.RawMessage) (any, func(*Convention), error) {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, nil, err
			}
			d, err := ParseDate(s)
			if err != nil {
				return nil, nil, err
			}
			return FormatDate(d), func(c *Convention) { *ref(c) = d }, nil
		},
	}
}

func jsonField(ref func(c *Convention) *any) fieldCodec {
	return fieldCodec{
		current: func(c *Convention) any { return normalizeJSON(*ref(c)) },
		decode: func(raw json.RawMessage) (any, func(*Convention), error) {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, nil, err
			}
			return v, func(c *Convention) { *ref(c) = v }, nil
		},
	}
}

// normalizeJSON round-trips v through encoding/json so it compares equal to freshly decoded input.
func normalizeJSON(v any) any {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// ConventionDetail is a convention with its references resolved.
type ConventionDetail struct {
	Convention
	Documents  []Document  `json:"documents"`
	Indicators []Indicator `json:"indicators"`
}

// Progress counts submitted documents and indicator health.
type Progress struct {
	DocumentsSubmitted int `json:"documentsSubmitted"`
	IndicatorsOnTrack  int `json:"indicatorsOnTrack"`
	TotalIndicators    int `json:"totalIndicators"`
}

// Summary is the read model returned by the summary endpoint. It never carries history.
type Summary struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Status        Status    `json:"status"`
	Progress      Progress  `json:"progress"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	DaysRemaining int       `json:"daysRemaining"`
}

// Summarize builds the summary from the convention and its resolved indicators.
func (c Convention) Summarize(indicators []Indicator, now time.Time) Summary {
	onTrack := 0
	for _, ind := range indicators {
		if ind.Status == IndicatorOnTrack {
			onTrack++
		}
	}
	return Summary{
		ID:     c.ID,
		Type:   c.Type,
		Status: c.Status,
		Progress: Progress{
			DocumentsSubmitted: len(c.Documents),
			IndicatorsOnTrack:  onTrack,
			TotalIndicators:    len(c.Indicators),
		},
		StartDate:     c.StartDate,
		EndDate:       c.EndDate,
		DaysRemaining: c.DaysRemaining(now),
	}
}
