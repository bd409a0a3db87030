package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"

	"github.com/sirupsen/logrus"
)

// CatalogUseCase serves the read-only data the edit screen is built from.
type CatalogUseCase interface {
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	ListSelectableCategories(ctx context.Context) ([]domain.SelectableCategory, error)
}

type catalogUseCase struct {
	productRepo  domain.ProductRepository
	categoryRepo domain.CategoryRepository
	log          *logrus.Logger
}

func NewCatalogUseCase(pRepo domain.ProductRepository, cRepo domain.CategoryRepository, logger *logrus.Logger) CatalogUseCase {
	return &catalogUseCase{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		log:          logger,
	}
}

func (uc *catalogUseCase) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		uc.log.Warn("Use Case: Attempted to get product with empty ID")
		return nil, domain.NewValidationError("id", "invalid product ID")
	}

	product, err := uc.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.log.Warnf("Use Case: Product %s not found", id)
			return nil, err
		}
		uc.log.Errorf("Use Case: Repository failed to get product %s: %v", id, err)
		return nil, &domain.FetchError{Resource: domain.ProductsCollection, Err: err}
	}
	return product, nil
}

func (uc *catalogUseCase) ListSelectableCategories(ctx context.Context) ([]domain.SelectableCategory, error) {
	categories, err := uc.categoryRepo.ListCategories(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list categories: %v", err)
		return nil, &domain.FetchError{Resource: domain.CategoriesCollection, Err: fmt.Errorf("could not retrieve categories: %w", err)}
	}
	selectable := BuildSelectableCategories(categories)
	uc.log.Infof("Use Case: Retrieved %d selectable categories", len(selectable))
	return selectable, nil
}
