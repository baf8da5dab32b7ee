package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UserInput struct {
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	EnterpriseID *uuid.UUID `json:"enterpriseId"`
}

// UserUpdate carries the account fields to change; nil fields stay as they are.
type UserUpdate struct {
	Name         *string    `json:"name"`
	Email        *string    `json:"email"`
	Role         *Role      `json:"role"`
	EnterpriseID *uuid.UUID `json:"enterpriseId"`
	Active       *bool      `json:"active"`
}

type DocumentInput struct {
	Type  string         `json:"type"`
	Files []DocumentFile `json:"files"`
}

// Review is the verdict of an inspector on a document or a KPI submission.
type Review struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

type IndicatorInput struct {
	EnterpriseID uuid.UUID       `json:"enterpriseId"`
	ConventionID *uuid.UUID      `json:"conventionId,omitempty"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	TargetValue  decimal.Decimal `json:"targetValue"`
}

type SubmissionInput struct {
	Value   decimal.Decimal `json:"value"`
	Period  string          `json:"period"`
	Comment string          `json:"comment"`
}

// IndicatorOverview aggregates the KPI health of one enterprise.
type IndicatorOverview struct {
	Total             int             `json:"total"`
	OnTrack           int             `json:"onTrack"`
	AtRisk            int             `json:"atRisk"`
	Late              int             `json:"late"`
	AverageCompletion decimal.Decimal `json:"averageCompletion"`
}

type VisitRequest struct {
	EnterpriseID uuid.UUID `json:"enterpriseId"`
	ScheduledAt  time.Time `json:"scheduledAt"`
	Type         string    `json:"type"`
	Comment      string    `json:"comment"`
}

type VisitReportInput struct {
	Content string `json:"content"`
	Outcome string `json:"outcome"`
}

type Dashboard struct {
	Users     int `json:"users"`
	Visits    int `json:"visits"`
	Documents int `json:"documents"`
}

type ReportType struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type ReportRequest struct {
	Type   string
	Format string
	From   time.Time
	To     time.Time
}

// Report is a generated file ready for download.
type Report struct {
	Filename    string
	ContentType string
	Data        []byte
}
