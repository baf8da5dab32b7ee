package conventions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader"

	"oversight/internal/domain"
	"oversight/internal/ports"
)

const (
	systemUserName  = "system"
	unknownUserName = "unknown user"
)

// userResolver batches actor lookups of one history read into a single repository call.
type userResolver struct {
	loader *dataloader.Loader
}

func newUserResolver(users ports.UserRepository) *userResolver {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]uuid.UUID, len(keys))
		for i, k := range keys {
			id, err := uuid.Parse(k.String())
			if err != nil {
				return []*dataloader.Result{{Error: fmt.Errorf("invalid user key: %w", err)}}
			}
			ids[i] = id
		}

		found, err := users.GetMany(ctx, ids)
		if err != nil {
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		byID := make(map[uuid.UUID]domain.User, len(found))
		for _, u := range found {
			byID[u.ID] = u
		}
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if u, ok := byID[id]; ok {
				results[i] = &dataloader.Result{Data: u.Summary()}
			} else {
				results[i] = &dataloader.Result{Data: domain.UserSummary{ID: id, Name: unknownUserName}}
			}
		}
		return results
	}
	return &userResolver{loader: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(5*time.Millisecond))}
}

// resolveAll queues every lookup before waiting on any, so distinct actors share one batch.
func (r *userResolver) resolveAll(ctx context.Context, ids []uuid.UUID) ([]domain.UserSummary, error) {
	thunks := make([]dataloader.Thunk, len(ids))
	for i, id := range ids {
		if id != domain.SystemUserID {
			thunks[i] = r.loader.Load(ctx, dataloader.StringKey(id.String()))
		}
	}
	out := make([]domain.UserSummary, len(ids))
	for i, id := range ids {
		if thunks[i] == nil {
			out[i] = domain.UserSummary{ID: id, Name: systemUserName}
			continue
		}
		v, err := thunks[i]()
		if err != nil {
			return nil, err
		}
		out[i] = v.(domain.UserSummary)
	}
	return out, nil
}
