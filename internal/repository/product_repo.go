package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

type documentProductRepository struct {
	store domain.DocumentStore
	log   *logrus.Logger
}

func NewDocumentProductRepository(store domain.DocumentStore, logger *logrus.Logger) domain.ProductRepository {
	return &documentProductRepository{
		store: store,
		log:   logger,
	}
}

func (r *documentProductRepository) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	doc, err := r.store.GetDocument(ctx, domain.ProductsCollection, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.log.Warnf("Repository: Product with ID %s not found", id)
			return nil, fmt.Errorf("product with id %s: %w", id, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get product by ID %s: %v", id, err)
		return nil, err
	}

	product, err := DecodeProduct(doc)
	if err != nil {
		r.log.Errorf("Repository: Failed to decode product %s: %v", id, err)
		return nil, err
	}
	r.log.Infof("Repository: Product retrieved successfully with ID: %s", id)
	return product, nil
}

func (r *documentProductRepository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	fields, err := EncodeProduct(product)
	if err != nil {
		r.log.Errorf("Repository: Failed to encode product %s: %v", product.ID, err)
		return err
	}
	if err := r.store.UpdateDocument(ctx, domain.ProductsCollection, product.ID, fields); err != nil {
		r.log.Errorf("Repository: Failed to update product ID %s: %v", product.ID, err)
		return err
	}
	r.log.Infof("Repository: Product updated successfully with ID: %s", product.ID)
	return nil
}

// DecodeProduct turns a stored product document into a Product, filling the
// fields older documents may lack with their defaults. Numbers stored by
// other writers are read back as their decimal string form.
func DecodeProduct(doc *domain.Document) (*domain.Product, error) {
	raw := make(map[string]interface{}, len(doc.Fields))
	stored := make(map[string]interface{}, len(doc.Fields))
	for k, v := range doc.Fields {
		raw[k] = v
		stored[k] = v
	}

	organic := normalizeFlag(raw["organic"])
	imported := normalizeFlag(raw["imported"])
	subImages := cast.ToStringSlice(raw["subImagesBase64"])
	for _, k := range []string{"organic", "imported", "subImagesBase64", "id"} {
		delete(raw, k)
	}

	product := &domain.Product{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           product,
	})
	if err != nil {
		return nil, fmt.Errorf("could not build product decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("could not decode product %s: %w", doc.ID, err)
	}

	product.ID = doc.ID
	product.Organic = organic
	product.Imported = imported
	if subImages == nil {
		subImages = []string{}
	}
	product.SubImagesBase64 = subImages
	product.StoredFields = stored
	return product, nil
}

// EncodeProduct returns the full record as document fields. The id is the
// document key and is not part of the fields. A stored number whose text the
// form left unchanged is written back as the number.
func EncodeProduct(product *domain.Product) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if err := mapstructure.Decode(product, &fields); err != nil {
		return nil, fmt.Errorf("could not encode product %s: %w", product.ID, err)
	}
	delete(fields, "id")
	if product.SubImagesBase64 == nil {
		fields["subImagesBase64"] = []string{}
	}
	for k, v := range fields {
		text, ok := v.(string)
		if !ok {
			continue
		}
		if orig, ok := product.StoredFields[k]; ok && isNumber(orig) && cast.ToString(orig) == text {
			fields[k] = orig
		}
	}
	return fields, nil
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32:
		return true
	}
	return false
}

// Older forms stored the checkbox flags as "Yes"/"No".
func normalizeFlag(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "Yes"
	default:
		return false
	}
}
