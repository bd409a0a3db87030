package repository

import (
	"context"
	"fmt"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
)

type documentCategoryRepository struct {
	store domain.DocumentStore
	log   *logrus.Logger
}

func NewDocumentCategoryRepository(store domain.DocumentStore, logger *logrus.Logger) domain.CategoryRepository {
	return &documentCategoryRepository{
		store: store,
		log:   logger,
	}
}

func (r *documentCategoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	docs, err := r.store.ListCollection(ctx, domain.CategoriesCollection)
	if err != nil {
		r.log.Errorf("Repository: Failed to list categories: %v", err)
		return nil, fmt.Errorf("could not list categories: %w", err)
	}

	categories := make([]domain.Category, 0, len(docs))
	for i := range docs {
		var category domain.Category
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &category,
		})
		if err != nil {
			return nil, fmt.Errorf("could not build category decoder: %w", err)
		}
		if err := decoder.Decode(docs[i].Fields); err != nil {
			r.log.Errorf("Repository: Failed to decode category %s: %v", docs[i].ID, err)
			continue
		}
		category.ID = docs[i].ID
		categories = append(categories, category)
	}

	r.log.Infof("Repository: Retrieved %d categories", len(categories))
	return categories, nil
}
