package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"oversight/internal/domain"
)

// ConventionRepository persists conventions together with their history.
type ConventionRepository interface {
	// Create stores a new convention and its initial history at version 1.
	Create(ctx context.Context, c domain.Convention) (domain.Convention, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Convention, error)
	// Update writes c's mutable fields and appends entry in one unit, provided the
	// stored version still equals expectedVersion. Otherwise it fails with a
	// Conflict and writes nothing.
	Update(ctx context.Context, c domain.Convention, entry domain.HistoryEntry, expectedVersion int64) (domain.Convention, error)
	// ListByEnterprise returns the enterprise's conventions, newest first.
	ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Convention, error)
	// ListActive returns ACTIVE conventions whose window contains asOf's day, soonest end first.
	ListActive(ctx context.Context, enterpriseID uuid.UUID, asOf time.Time) ([]domain.Convention, error)
	List(ctx context.Context) ([]domain.Convention, error)
	RecentHistory(ctx context.Context, limit int) ([]domain.ActivityEntry, error)
}

// ExpiryRepository finds conventions that are still ACTIVE after their end date.
type ExpiryRepository interface {
	ListExpired(ctx context.Context, asOf time.Time, limit int) ([]uuid.UUID, error)
}

type EnterpriseRepository interface {
	Create(ctx context.Context, e domain.Enterprise) (domain.Enterprise, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Enterprise, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Update(ctx context.Context, e domain.Enterprise) (domain.Enterprise, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]domain.Enterprise, error)
}

type UserRepository interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
	// GetMany returns the users found among ids; missing ids are skipped.
	GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.User, error)
	// Update rewrites u's profile fields. A taken email is a Conflict.
	Update(ctx context.Context, u domain.User) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
}

type DocumentRepository interface {
	Create(ctx context.Context, d domain.Document) (domain.Document, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Document, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.Document, error)
	Update(ctx context.Context, d domain.Document) (domain.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Document, error)
	Count(ctx context.Context) (int, error)
}

type IndicatorRepository interface {
	Create(ctx context.Context, i domain.Indicator) (domain.Indicator, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Indicator, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.Indicator, error)
	Update(ctx context.Context, i domain.Indicator) (domain.Indicator, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Indicator, error)
	List(ctx context.Context) ([]domain.Indicator, error)
}

type VisitRepository interface {
	Create(ctx context.Context, v domain.Visit) (domain.Visit, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Visit, error)
	Update(ctx context.Context, v domain.Visit) (domain.Visit, error)
	ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Visit, error)
	ListByInspector(ctx context.Context, inspectorID uuid.UUID) ([]domain.Visit, error)
	Count(ctx context.Context) (int, error)
}

// Store groups every repository of one backend.
type Store struct {
	Conventions ConventionRepository
	Expiry      ExpiryRepository
	Enterprises EnterpriseRepository
	Users       UserRepository
	Documents   DocumentRepository
	Indicators  IndicatorRepository
	Visits      VisitRepository
}
