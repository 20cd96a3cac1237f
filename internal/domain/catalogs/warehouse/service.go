package warehouse

import (
	"context"
	"fmt"
	"strings"

	"stockcore/internal/core/tx"
	"stockcore/internal/domain/catalog"
)

// Service provides business logic for the Warehouse catalog.
type Service struct {
	*catalog.Service[*Warehouse]
	repo Repository
}

// NewService creates a Warehouse service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := catalog.NewService(catalog.ServiceConfig[*Warehouse]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "warehouse",
	})

	svc := &Service{
		Service: base,
		repo:    repo,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)
	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, wh *Warehouse) error {
	if wh.Code == "" {
		compact := strings.ReplaceAll(wh.ID.String(), "-", "")
		wh.Code = fmt.Sprintf("WH-%s", strings.ToUpper(compact[len(compact)-8:]))
	}

	if wh.IsDefault {
		if err := s.repo.ClearDefault(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) prepareForUpdate(ctx context.Context, wh *Warehouse) error {
	if wh.IsDefault {
		if err := s.repo.ClearDefault(ctx); err != nil {
			return err
		}
	}
	return nil
}

// GetDefault returns the default warehouse.
func (s *Service) GetDefault(ctx context.Context) (*Warehouse, error) {
	return s.repo.GetDefault(ctx)
}
