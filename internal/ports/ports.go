package ports

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"oversight/internal/domain"
)

// Conventions manages the convention lifecycle and its audit trail.
type Conventions interface {
	Create(ctx context.Context, in domain.ConventionInput, actor uuid.UUID) (domain.Convention, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Convention, error)
	// Update applies a field diff. An expectedVersion of 0 means the version read by the call.
	Update(ctx context.Context, id uuid.UUID, fields map[string]json.RawMessage, actor uuid.UUID, expectedVersion int64) (domain.Convention, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status, actor uuid.UUID, expectedVersion int64) (domain.Convention, error)
	AddDocument(ctx context.Context, id, documentID, actor uuid.UUID, expectedVersion int64) (domain.Convention, error)
	LinkIndicator(ctx context.Context, id, indicatorID, actor uuid.UUID) (domain.Convention, error)
	ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.ConventionDetail, error)
	ListActive(ctx context.Context, enterpriseID uuid.UUID) ([]domain.ConventionDetail, error)
	GetHistory(ctx context.Context, id uuid.UUID) ([]domain.HistoryView, error)
	GetSummary(ctx context.Context, id uuid.UUID) (domain.Summary, error)
}

type Enterprises interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Enterprise, error)
	Create(ctx context.Context, body map[string]json.RawMessage) (domain.Enterprise, error)
	Update(ctx context.Context, id uuid.UUID, body map[string]json.RawMessage) (domain.Enterprise, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Users interface {
	Create(ctx context.Context, in domain.UserInput) (domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// Update edits an account. Non-admins may only change their own name and email.
	Update(ctx context.Context, id uuid.UUID, in domain.UserUpdate, actor domain.User) (domain.User, error)
	// Deactivate disables an account; its tokens stop authenticating.
	Deactivate(ctx context.Context, id uuid.UUID, actor domain.User) (domain.User, error)
}

type Documents interface {
	Types() []string
	ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Document, error)
	Register(ctx context.Context, enterpriseID uuid.UUID, in domain.DocumentInput) (domain.Document, error)
	Validate(ctx context.Context, id uuid.UUID, review domain.Review, actor uuid.UUID) (domain.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Indicators interface {
	Create(ctx context.Context, in domain.IndicatorInput, actor uuid.UUID) (domain.Indicator, error)
	ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Indicator, error)
	Overview(ctx context.Context, enterpriseID uuid.UUID) (domain.IndicatorOverview, error)
	Submit(ctx context.Context, id uuid.UUID, in domain.SubmissionInput, actor uuid.UUID) (domain.Indicator, error)
	ReviewSubmission(ctx context.Context, id, submissionID uuid.UUID, review domain.Review, actor uuid.UUID) (domain.Indicator, error)
	History(ctx context.Context, id uuid.UUID) ([]domain.Submission, error)
}

type Visits interface {
	Request(ctx context.Context, in domain.VisitRequest) (domain.Visit, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Visit, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (domain.Visit, error)
	Report(ctx context.Context, id uuid.UUID, in domain.VisitReportInput, actor uuid.UUID) (domain.Visit, error)
	AssignInspector(ctx context.Context, id, inspectorID uuid.UUID) (domain.Visit, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.VisitStatus, actor uuid.UUID) (domain.Visit, error)
	ListForInspector(ctx context.Context, inspectorID uuid.UUID) ([]domain.Visit, error)
	ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Visit, error)
	Upcoming(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Visit, error)
	Past(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Visit, error)
}

type Admin interface {
	Dashboard(ctx context.Context) (domain.Dashboard, error)
	Activity(ctx context.Context, limit int) ([]domain.ActivityEntry, error)
}

type Reports interface {
	Types() []domain.ReportType
	Generate(ctx context.Context, req domain.ReportRequest) (domain.Report, error)
}
