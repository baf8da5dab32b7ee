package documents

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oversight/internal/adapters/memory"
	"oversight/internal/domain"
	"oversight/internal/ports"
)

func TestRegisterAndValidate(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	logger, _ := test.NewNullLogger()
	svc := New(store.Documents(), store.Enterprises(), ports.NopNotifier{}, logger)

	ent, err := store.Enterprises().Create(ctx, domain.Enterprise{ID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.Register(ctx, ent.ID, domain.DocumentInput{Type: "PASSPORT", Files: []domain.DocumentFile{{Name: "a", URL: "u"}}})
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	_, err = svc.Register(ctx, ent.ID, domain.DocumentInput{Type: "TAX_CERTIFICATE"})
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	_, err = svc.Register(ctx, uuid.New(), domain.DocumentInput{Type: "TAX_CERTIFICATE", Files: []domain.DocumentFile{{Name: "a", URL: "u"}}})
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	doc, err := svc.Register(ctx, ent.ID, domain.DocumentInput{
		Type:  "TAX_CERTIFICATE",
		Files: []domain.DocumentFile{{Name: "attestation.pdf", URL: "https://files.example.cm/attestation.pdf"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentWaiting, doc.Status)

	inspector := uuid.New()
	_, err = svc.Validate(ctx, doc.ID, domain.Review{Status: "WAITING"}, inspector)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	doc, err = svc.Validate(ctx, doc.ID, domain.Review{Status: "REJECTED", Comment: "expired"}, inspector)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentRejected, doc.Status)
	require.NotNil(t, doc.ValidatedBy)
	assert.Equal(t, inspector, *doc.ValidatedBy)

	list, err := svc.ListByEnterprise(ctx, ent.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, doc.ID))
	assert.True(t, domain.IsKind(svc.Delete(ctx, doc.ID), domain.KindNotFound))
}
