package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"

	"github.com/sirupsen/logrus"
)

const (
	DefaultRedirectDelay = 1500 * time.Millisecond
	DefaultRedirectPath  = "/dashboard/view-product"
)

type ProductEditUseCase interface {
	// Open creates a form for the product and loads it.
	Open(ctx context.Context, productID string) (*ProductForm, error)
	// Load fetches the categories and the product into form. The returned
	// error is the product's load error; a category failure only shows up
	// in the form's message slot.
	Load(ctx context.Context, form *ProductForm) error
	// Submit validates the form and writes the whole product back.
	Submit(ctx context.Context, form *ProductForm) error
}

type EditOptions struct {
	RedirectDelay time.Duration
	RedirectPath  string
	// StoreTimeout bounds each load and each save. Zero means no bound
	// beyond the caller's context.
	StoreTimeout time.Duration
}

type productEditUseCase struct {
	productRepo  domain.ProductRepository
	categoryRepo domain.CategoryRepository
	opts         EditOptions
	log          *logrus.Logger
}

func NewProductEditUseCase(pRepo domain.ProductRepository, cRepo domain.CategoryRepository, opts EditOptions, logger *logrus.Logger) ProductEditUseCase {
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = DefaultRedirectDelay
	}
	if opts.RedirectPath == "" {
		opts.RedirectPath = DefaultRedirectPath
	}
	return &productEditUseCase{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		opts:         opts,
		log:          logger,
	}
}

func (uc *productEditUseCase) Open(ctx context.Context, productID string) (*ProductForm, error) {
	form := NewProductForm(productID)
	return form, uc.Load(ctx, form)
}

func (uc *productEditUseCase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.opts.StoreTimeout > 0 {
		return context.WithTimeout(ctx, uc.opts.StoreTimeout)
	}
	return context.WithCancel(ctx)
}

func (uc *productEditUseCase) Load(ctx context.Context, form *ProductForm) error {
	productID := form.ProductID()
	// A cancelled session means the form was discarded; a timeout is a
	// fetch failure like any other.
	session := ctx
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()
	uc.log.Infof("Use Case: Loading product %s for editing", productID)

	var (
		wg         sync.WaitGroup
		productErr error
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		categories, err := uc.categoryRepo.ListCategories(ctx)
		if session.Err() != nil {
			return
		}
		if err != nil {
			fetchErr := &domain.FetchError{Resource: domain.CategoriesCollection, Err: err}
			uc.log.Errorf("Use Case: Error fetching categories for product %s: %v", productID, err)
			form.setError(fetchErr.Error())
			return
		}
		form.setCategories(BuildSelectableCategories(categories))
	}()

	go func() {
		defer wg.Done()
		product, err := uc.productRepo.GetProductByID(ctx, productID)
		if session.Err() != nil {
			productErr = session.Err()
			return
		}
		defer form.finishLoading()
		switch {
		case errors.Is(err, domain.ErrNotFound):
			uc.log.Warnf("Use Case: Product %s not found", productID)
			productErr = err
			form.setError(domain.MsgProductNotFound)
		case err != nil:
			fetchErr := &domain.FetchError{Resource: domain.ProductsCollection, Err: err}
			uc.log.Errorf("Use Case: Error fetching product %s: %v", productID, err)
			productErr = fetchErr
			form.setError(fetchErr.Error())
		default:
			form.setProduct(product)
		}
	}()

	wg.Wait()
	if productErr == nil {
		uc.log.Infof("Use Case: Product %s loaded for editing", productID)
	}
	return productErr
}

func (uc *productEditUseCase) Submit(ctx context.Context, form *ProductForm) error {
	productID := form.ProductID()
	product := form.productForSave()
	if err := ValidateProduct(product); err != nil {
		uc.log.Warnf("Use Case: Validation failed for product %s: %v", productID, err)
		form.setError(err.Error())
		return err
	}

	if !form.beginSaving() {
		uc.log.Warnf("Use Case: Save already in progress for product %s", productID)
		return ErrSaveInProgress
	}
	defer form.endSaving()

	uc.log.Infof("Use Case: Attempting to update product %s", productID)
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()
	if err := uc.productRepo.UpdateProduct(ctx, product); err != nil {
		updateErr := &domain.UpdateError{Err: err}
		uc.log.Errorf("Use Case: Repository failed to update product %s: %v", productID, err)
		form.setError(updateErr.Error())
		return updateErr
	}

	form.setSuccess(domain.MsgProductUpdated)
	form.scheduleNavigation(uc.opts.RedirectDelay, uc.opts.RedirectPath)
	uc.log.Infof("Use Case: Product %s updated successfully", productID)
	return nil
}
