package memory

import (
	"context"

	"github.com/google/uuid"

	"oversight/internal/domain"
)

type Documents struct{ s *Store }

func cloneDocument(d domain.Document) domain.Document {
	d.Files = append([]domain.DocumentFile{}, d.Files...)
	return d
}

func (r *Documents) Create(ctx context.Context, d domain.Document) (domain.Document, error) {
	if err := alive(ctx, "create document"); err != nil {
		return domain.Document{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.documents[d.ID] = cloneDocument(d)
	return cloneDocument(d), nil
}

func (r *Documents) Get(ctx context.Context, id uuid.UUID) (domain.Document, error) {
	if err := alive(ctx, "get document"); err != nil {
		return domain.Document{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.documents[id]
	if !ok {
		return domain.Document{}, domain.NotFound("Document")
	}
	return cloneDocument(d), nil
}

func (r *Documents) GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.Document, error) {
	if err := alive(ctx, "get documents"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return pick(r.s.documents, ids, cloneDocument), nil
}

func (r *Documents) Update(ctx context.Context, d domain.Document) (domain.Document, error) {
	if err := alive(ctx, "update document"); err != nil {
		return domain.Document{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.documents[d.ID]; !ok {
		return domain.Document{}, domain.NotFound("Document")
	}
	r.s.documents[d.ID] = cloneDocument(d)
	return cloneDocument(d), nil
}

func (r *Documents) Delete(ctx context.Context, id uuid.UUID) error {
	if err := alive(ctx, "delete document"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.documents[id]; !ok {
		return domain.NotFound("Document")
	}
	delete(r.s.documents, id)
	return nil
}

func (r *Documents) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Document, error) {
	if err := alive(ctx, "list documents"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := sortedValues(r.s.documents,
		func(d domain.Document) bool { return d.EnterpriseID == enterpriseID },
		func(a, b domain.Document) bool { return a.UploadedAt.After(b.UploadedAt) })
	for i := range out {
		out[i] = cloneDocument(out[i])
	}
	return out, nil
}

func (r *Documents) Count(ctx context.Context) (int, error) {
	if err := alive(ctx, "count documents"); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.documents), nil
}
