package reports

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"oversight/internal/adapters/memory"
	"oversight/internal/domain"
)

func TestGenerateUsersWorkbook(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	jan := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	_, err := store.Users().Create(ctx, domain.User{ID: uuid.New(), Name: "Nadia", Email: "nadia@example.cm", Role: domain.RoleAdmin, CreatedAt: jan})
	require.NoError(t, err)
	_, err = store.Users().Create(ctx, domain.User{ID: uuid.New(), Name: "Paul", Email: "paul@example.cm", Role: domain.RoleUser, CreatedAt: mar})
	require.NoError(t, err)

	svc := New(store.Repositories())
	report, err := svc.Generate(ctx, domain.ReportRequest{
		Type:   "users",
		Format: "excel",
		From:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, xlsxContentType, report.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(report.Data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("users")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ID", "Nom", "Email", "Rôle", "Actif"}, rows[0])
	assert.Equal(t, "Nadia", rows[1][1])
}

func TestGenerateRejectsPDFAndUnknownTypes(t *testing.T) {
	svc := New(memory.New().Repositories())

	_, err := svc.Generate(context.Background(), domain.ReportRequest{Type: "users", Format: "pdf"})
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = svc.Generate(context.Background(), domain.ReportRequest{Type: "invoices", Format: "excel"})
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}
