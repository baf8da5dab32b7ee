package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Collaborator models referenced by conventions. Conventions hold their IDs only;
// the structs below are what reference resolution returns.

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleInspector Role = "inspector"
	RoleUser      Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleInspector || r == RoleUser
}

type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	EnterpriseID *uuid.UUID `json:"enterpriseId,omitempty"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

type DocumentStatus string

const (
	DocumentWaiting   DocumentStatus = "WAITING"
	DocumentValidated DocumentStatus = "VALIDATED"
	DocumentRejected  DocumentStatus = "REJECTED"
)

// DocumentTypes lists the accepted document categories.
var DocumentTypes = []string{
	"LEGAL_STATUTES",
	"TAX_CERTIFICATE",
	"ACTIVITY_REPORT",
	"FINANCIAL_STATEMENT",
	"SIGNED_CONVENTION",
	"EMPLOYMENT_RECORD",
	"OTHER",
}

func ValidDocumentType(t string) bool { return contains(DocumentTypes, t) }

type DocumentFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Document struct {
	ID           uuid.UUID      `json:"id"`
	EnterpriseID uuid.UUID      `json:"enterpriseId"`
	Type         string         `json:"type"`
	Files        []DocumentFile `json:"files"`
	Status       DocumentStatus `json:"status"`
	Comment      string         `json:"comment,omitempty"`
	UploadedAt   time.Time      `json:"uploadedAt"`
	ValidatedBy  *uuid.UUID     `json:"validatedBy,omitempty"`
	ValidatedAt  *time.Time     `json:"validatedAt,omitempty"`
}

type IndicatorStatus string

const (
	IndicatorOnTrack IndicatorStatus = "ON_TRACK"
	IndicatorAtRisk  IndicatorStatus = "AT_RISK"
	IndicatorLate    IndicatorStatus = "LATE"
)

type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "PENDING"
	SubmissionValidated SubmissionStatus = "VALIDATED"
	SubmissionRejected  SubmissionStatus = "REJECTED"
)

type Submission struct {
	ID          uuid.UUID        `json:"id"`
	Value       decimal.Decimal  `json:"value"`
	Period      string           `json:"period,omitempty"`
	Comment     string           `json:"comment,omitempty"`
	Status      SubmissionStatus `json:"status"`
	SubmittedBy uuid.UUID        `json:"submittedBy"`
	SubmittedAt time.Time        `json:"submittedAt"`
	ValidatedBy *uuid.UUID       `json:"validatedBy,omitempty"`
	ValidatedAt *time.Time       `json:"validatedAt,omitempty"`
}

// Indicator is a KPI tracked for an enterprise, optionally under a convention.
type Indicator struct {
	ID           uuid.UUID       `json:"id"`
	EnterpriseID uuid.UUID       `json:"enterpriseId"`
	ConventionID *uuid.UUID      `json:"conventionId,omitempty"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit,omitempty"`
	TargetValue  decimal.Decimal `json:"targetValue"`
	CurrentValue decimal.Decimal `json:"currentValue"`
	Status       IndicatorStatus `json:"status"`
	Submissions  []Submission    `json:"submissions"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

var (
	onTrackRatio = decimal.RequireFromString("0.9")
	atRiskRatio  = decimal.RequireFromString("0.6")
)

// EvaluateStatus grades current against target: >= 90% on track, >= 60% at risk, else late.
func EvaluateStatus(current, target decimal.Decimal) IndicatorStatus {
	if !target.IsPositive() {
		return IndicatorOnTrack
	}
	ratio := current.Div(target)
	switch {
	case ratio.GreaterThanOrEqual(onTrackRatio):
		return IndicatorOnTrack
	case ratio.GreaterThanOrEqual(atRiskRatio):
		return IndicatorAtRisk
	default:
		return IndicatorLate
	}
}

// Completion is current/target, capped at 1. A non-positive target counts as complete.
func (i Indicator) Completion() decimal.Decimal {
	if !i.TargetValue.IsPositive() {
		return decimal.NewFromInt(1)
	}
	ratio := i.CurrentValue.Div(i.TargetValue)
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return ratio
}

type VisitStatus string

const (
	VisitScheduled  VisitStatus = "SCHEDULED"
	VisitInProgress VisitStatus = "IN_PROGRESS"
	VisitCompleted  VisitStatus = "COMPLETED"
	VisitCancelled  VisitStatus = "CANCELLED"
)

// VisitTransitions maps each visit status to the statuses it may move to.
var VisitTransitions = map[string][]string{
	string(VisitScheduled):  {string(VisitInProgress), string(VisitCompleted), string(VisitCancelled)},
	string(VisitInProgress): {string(VisitCompleted), string(VisitCancelled)},
	string(VisitCompleted):  {},
	string(VisitCancelled):  {},
}

type VisitReport struct {
	Content     string    `json:"content"`
	Outcome     string    `json:"outcome,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
	SubmittedBy uuid.UUID `json:"submittedBy"`
}

type Visit struct {
	ID                 uuid.UUID    `json:"id"`
	EnterpriseID       uuid.UUID    `json:"enterpriseId"`
	InspectorID        *uuid.UUID   `json:"inspectorId,omitempty"`
	ScheduledAt        time.Time    `json:"scheduledAt"`
	Type               string       `json:"type"`
	Comment            string       `json:"comment,omitempty"`
	Status             VisitStatus  `json:"status"`
	Outcome            string       `json:"outcome,omitempty"`
	CancellationReason string       `json:"cancellationReason,omitempty"`
	Report             *VisitReport `json:"report,omitempty"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// Notification is a real-time event pushed to connected clients.
type Notification struct {
	Type  string         `json:"type"`
	Rooms []string       `json:"-"`
	Data  map[string]any `json:"data"`
}

func EnterpriseRoom(id uuid.UUID) string { return "enterprise_" + id.String() }

func RoleRoom(r Role) string { return "role_" + string(r) }
