package product

import (
	"context"
	"fmt"
	"strings"

	"stockcore/internal/core/id"
	"stockcore/internal/core/tx"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/catalog"
)

// Service provides business logic for the Product catalog.
type Service struct {
	*catalog.Service[*Product]
	repo Repository
}

// NewService creates a Product service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := catalog.NewService(catalog.ServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		Service: base,
		repo:    repo,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	return svc
}

// prepareForCreate fills the code when not provided.
func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	if p.Code == "" {
		p.Code = generateCode("PRD", p.ID)
	}
	return nil
}

// Threshold exposes the product's low-stock threshold in the shape the
// stock engine expects.
func (s *Service) Threshold(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return s.repo.LowStockThreshold(ctx, productID)
}

// generateCode derives a stable human-readable code from the entity id.
func generateCode(prefix string, entityID id.ID) string {
	compact := strings.ReplaceAll(entityID.String(), "-", "")
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(compact[len(compact)-8:]))
}
