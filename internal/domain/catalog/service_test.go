package catalog

import (
	"context"
	"testing"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/entity"
	"stockcore/internal/core/id"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type thing struct {
	entity.Catalog
}

func newThing(name string) *thing {
	return &thing{Catalog: entity.NewCatalog("", name)}
}

type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubRepo struct {
	byID    map[id.ID]*thing
	deleted map[id.ID]bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: make(map[id.ID]*thing), deleted: make(map[id.ID]bool)}
}

func (r *stubRepo) Create(ctx context.Context, e *thing) error {
	r.byID[e.ID] = e
	return nil
}

func (r *stubRepo) GetByID(ctx context.Context, entityID id.ID) (*thing, error) {
	e, ok := r.byID[entityID]
	if !ok {
		return nil, apperror.NewNotFound("row", entityID.String())
	}
	return e, nil
}

func (r *stubRepo) GetByCode(ctx context.Context, code string) (*thing, error) {
	for _, e := range r.byID {
		if e.Code == code {
			return e, nil
		}
	}
	return nil, apperror.NewNotFound("row", code)
}

func (r *stubRepo) Update(ctx context.Context, e *thing) error {
	r.byID[e.ID] = e
	return nil
}

func (r *stubRepo) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	r.deleted[entityID] = marked
	return nil
}

func (r *stubRepo) List(ctx context.Context, filter ListFilter) (ListResult[*thing], error) {
	out := ListResult[*thing]{Limit: filter.Limit, Offset: filter.Offset}
	for _, e := range r.byID {
		out.Items = append(out.Items, e)
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
}

func (r *stubRepo) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	_, ok := r.byID[entityID]
	return ok, nil
}

func (r *stubRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	return err == nil, nil
}

func newTestService(repo *stubRepo) *Service[*thing] {
	return NewService(ServiceConfig[*thing]{
		Repo:       repo,
		TxManager:  nopTx{},
		EntityName: "thing",
	})
}

func TestCreateValidatesFirst(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	svc := newTestService(repo)

	err := svc.Create(ctx, newThing(""))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, repo.byID)

	require.NoError(t, svc.Create(ctx, newThing("widget")))
	assert.Len(t, repo.byID, 1)
}

func TestBeforeCreateHookCanMutateAndAbort(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	svc := newTestService(repo)

	svc.Hooks().OnBeforeCreate(func(ctx context.Context, e *thing) error {
		if e.Code == "" {
			e.Code = "T-001"
		}
		return nil
	})
	svc.Hooks().OnBeforeCreate(func(ctx context.Context, e *thing) error {
		if e.Name == "forbidden" {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "name is reserved")
		}
		return nil
	})

	e := newThing("widget")
	require.NoError(t, svc.Create(ctx, e))
	assert.Equal(t, "T-001", e.Code)

	err := svc.Create(ctx, newThing("forbidden"))
	require.Error(t, err)
	assert.Len(t, repo.byID, 1)
}

func TestGetByIDMapsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newStubRepo())

	_, err := svc.GetByID(ctx, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Message, "thing")
}

func TestDeleteIsSoft(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	svc := newTestService(repo)

	e := newThing("widget")
	require.NoError(t, svc.Create(ctx, e))
	require.NoError(t, svc.Delete(ctx, e.ID))

	assert.True(t, repo.deleted[e.ID])
	// The row itself survives: the ledger may reference it.
	_, ok := repo.byID[e.ID]
	assert.True(t, ok)
}
