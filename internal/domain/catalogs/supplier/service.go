package supplier

import (
	"context"
	"fmt"
	"strings"

	"stockcore/internal/core/tx"
	"stockcore/internal/domain/catalog"
)

// Repository defines Supplier persistence.
type Repository interface {
	catalog.Repository[*Supplier]
}

// Service provides business logic for the Supplier catalog.
type Service struct {
	*catalog.Service[*Supplier]
	repo Repository
}

// NewService creates a Supplier service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := catalog.NewService(catalog.ServiceConfig[*Supplier]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "supplier",
	})

	svc := &Service{
		Service: base,
		repo:    repo,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, sup *Supplier) error {
	if sup.Code == "" {
		compact := strings.ReplaceAll(sup.ID.String(), "-", "")
		sup.Code = fmt.Sprintf("SUP-%s", strings.ToUpper(compact[len(compact)-8:]))
	}
	return nil
}
