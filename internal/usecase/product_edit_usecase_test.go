package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"
	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeProductRepo struct {
	mu        sync.Mutex
	product   *domain.Product
	getErr    error
	updateErr error
	getDelay  time.Duration
	updates   []*domain.Product
}

func (r *fakeProductRepo) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	if r.getDelay > 0 {
		select {
		case <-time.After(r.getDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.getErr != nil {
		return nil, r.getErr
	}
	if r.product == nil || r.product.ID != id {
		return nil, domain.ErrNotFound
	}
	return r.product.Clone(), nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, p.Clone())
	return r.updateErr
}

func (r *fakeProductRepo) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

type fakeCategoryRepo struct {
	categories []domain.Category
	err        error
}

func (r *fakeCategoryRepo) ListCategories(context.Context) ([]domain.Category, error) {
	return r.categories, r.err
}

var testCategories = []domain.Category{
	{ID: "m1", Name: "Dairy", Type: domain.CategoryMain},
	{ID: "s1", Name: "Milk", Type: domain.CategorySub, ParentID: "m1"},
}

func newEditUseCase(pRepo domain.ProductRepository, cRepo domain.CategoryRepository) ProductEditUseCase {
	return NewProductEditUseCase(pRepo, cRepo, EditOptions{
		RedirectDelay: 20 * time.Millisecond,
		RedirectPath:  "/dashboard/view-product",
	}, newTestLogger())
}

func seededStore(t *testing.T, fields map[string]interface{}) *repository.MemoryDocumentStore {
	t.Helper()
	store := repository.NewMemoryDocumentStore(newTestLogger())
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, domain.ProductsCollection, "p1", fields))
	require.NoError(t, store.Put(ctx, domain.CategoriesCollection, "m1", map[string]interface{}{"name": "Dairy", "type": "main"}))
	require.NoError(t, store.Put(ctx, domain.CategoriesCollection, "s1", map[string]interface{}{"name": "Milk", "type": "sub", "parentId": "m1"}))
	return store
}

func TestLoadFromDocumentStore(t *testing.T) {
	tests := []struct {
		name         string
		organic      interface{}
		imported     interface{}
		subImages    interface{}
		wantOrganic  bool
		wantImported bool
		wantSubs     []string
	}{
		{name: "legacy organic yes", organic: "Yes", subImages: []string{"data:image/png;base64,S0"}, wantOrganic: true, wantSubs: []string{"data:image/png;base64,S0"}},
		{name: "legacy organic no", organic: "No", wantSubs: []string{}},
		{name: "legacy imported yes", imported: "Yes", wantImported: true, wantSubs: []string{}},
		{name: "legacy imported no", imported: "No", wantSubs: []string{}},
		{name: "boolean organic", organic: true, wantOrganic: true, wantSubs: []string{}},
		{name: "boolean false", organic: false, wantSubs: []string{}},
		{name: "organic missing", wantSubs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := map[string]interface{}{
				"name":          "Milk",
				"imageBase64":   "data:image/png;base64,AAA",
				"originalPrice": 50,
				"offer":         "10",
				"salePrice":     "45.00",
			}
			if tt.organic != nil {
				fields["organic"] = tt.organic
			}
			if tt.imported != nil {
				fields["imported"] = tt.imported
			}
			if tt.subImages != nil {
				fields["subImagesBase64"] = tt.subImages
			}
			store := seededStore(t, fields)
			uc := newEditUseCase(repository.NewDocumentProductRepository(store, newTestLogger()),
				repository.NewDocumentCategoryRepository(store, newTestLogger()))

			form, err := uc.Open(context.Background(), "p1")
			require.NoError(t, err)

			view := form.Snapshot()
			require.NotNil(t, view.Product)
			assert.Equal(t, "p1", view.Product.ID)
			assert.Equal(t, "50", view.Product.OriginalPrice)
			assert.Equal(t, tt.wantOrganic, view.Product.Organic)
			assert.Equal(t, tt.wantImported, view.Product.Imported)
			assert.Equal(t, tt.wantSubs, view.Product.SubImagesBase64)
			assert.Equal(t, "data:image/png;base64,AAA", view.Preview)
			assert.Equal(t, []domain.SelectableCategory{{ID: "s1", Name: "Milk", Label: "Dairy → Milk"}}, view.Categories)
			assert.False(t, view.Loading)
			assert.Empty(t, view.Error)
		})
	}
}

func TestLoadProductNotFound(t *testing.T) {
	uc := newEditUseCase(&fakeProductRepo{}, &fakeCategoryRepo{categories: testCategories})

	form, err := uc.Open(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	view := form.Snapshot()
	assert.Nil(t, view.Product)
	assert.True(t, view.Disabled)
	assert.False(t, view.Loading)
	assert.Equal(t, domain.MsgProductNotFound, view.Error)
	assert.Len(t, view.Categories, 1)
}

func TestLoadProductFetchFailure(t *testing.T) {
	uc := newEditUseCase(&fakeProductRepo{getErr: errors.New("connection reset")}, &fakeCategoryRepo{categories: testCategories})

	form, err := uc.Open(context.Background(), "p1")
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)

	view := form.Snapshot()
	assert.Equal(t, "Failed to fetch product: connection reset", view.Error)
	assert.False(t, view.Loading)
	assert.Nil(t, view.Product)
}

func TestLoadCategoriesFailureKeepsProduct(t *testing.T) {
	uc := newEditUseCase(&fakeProductRepo{product: milk()}, &fakeCategoryRepo{err: errors.New("boom")})

	form, err := uc.Open(context.Background(), "p1")
	require.NoError(t, err)

	view := form.Snapshot()
	require.NotNil(t, view.Product)
	assert.Equal(t, "Milk", view.Product.Name)
	assert.Empty(t, view.Categories)
	assert.Equal(t, domain.MsgCategoriesFailed, view.Error)
}

func TestLoadBothFailuresShowOneMessage(t *testing.T) {
	uc := newEditUseCase(&fakeProductRepo{getErr: errors.New("down")}, &fakeCategoryRepo{err: errors.New("down")})

	form, err := uc.Open(context.Background(), "p1")
	require.Error(t, err)
	assert.Contains(t, []string{domain.MsgCategoriesFailed, "Failed to fetch product: down"}, form.Snapshot().Error)
}

func TestLoadTimeoutIsAFetchFailure(t *testing.T) {
	uc := NewProductEditUseCase(&fakeProductRepo{product: milk(), getDelay: time.Second},
		&fakeCategoryRepo{categories: testCategories},
		EditOptions{StoreTimeout: 10 * time.Millisecond}, newTestLogger())

	form, err := uc.Open(context.Background(), "p1")
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, form.Snapshot().Loading)
}

func TestLoadCancelledSessionLeavesFormUntouched(t *testing.T) {
	uc := newEditUseCase(&fakeProductRepo{product: milk(), getDelay: time.Second}, &fakeCategoryRepo{categories: testCategories})

	ctx, cancel := context.WithCancel(context.Background())
	form := NewProductForm("p1")
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := uc.Load(ctx, form)
	require.ErrorIs(t, err, context.Canceled)
	view := form.Snapshot()
	assert.True(t, view.Loading)
	assert.Nil(t, view.Product)
	assert.Empty(t, view.Error)
}

func TestSubmitRequiredFields(t *testing.T) {
	tests := map[string]func(p *domain.Product){
		"empty name":  func(p *domain.Product) { p.Name = "" },
		"empty image": func(p *domain.Product) { p.ImageBase64 = "" },
		"empty price": func(p *domain.Product) { p.OriginalPrice = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			repo := &fakeProductRepo{}
			uc := newEditUseCase(repo, &fakeCategoryRepo{})
			p := milk()
			mutate(p)
			form := loadedForm(t, p)

			err := uc.Submit(context.Background(), form)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)

			assert.Zero(t, repo.updateCount())
			view := form.Snapshot()
			assert.Equal(t, domain.MsgRequiredFields, view.Error)
			assert.False(t, view.Saving)
		})
	}
}

func TestSubmitUnloadedForm(t *testing.T) {
	repo := &fakeProductRepo{}
	uc := newEditUseCase(repo, &fakeCategoryRepo{})

	err := uc.Submit(context.Background(), NewProductForm("p1"))
	require.Error(t, err)
	assert.Zero(t, repo.updateCount())
}

func TestSubmitWritesFullRecordAndNavigates(t *testing.T) {
	repo := &fakeProductRepo{}
	uc := newEditUseCase(repo, &fakeCategoryRepo{})
	form := loadedForm(t, &domain.Product{
		ID:            "p1",
		Name:          "Milk",
		ImageBase64:   "data:image/png;base64,AAA",
		OriginalPrice: "50",
	})
	events, unsubscribe := form.Subscribe()
	defer unsubscribe()

	require.NoError(t, uc.Submit(context.Background(), form))

	require.Equal(t, 1, repo.updateCount())
	saved := repo.updates[0]
	assert.Equal(t, "p1", saved.ID)
	assert.Equal(t, "Milk", saved.Name)
	assert.Equal(t, "data:image/png;base64,AAA", saved.ImageBase64)
	assert.Equal(t, "50", saved.OriginalPrice)

	view := form.Snapshot()
	assert.Equal(t, domain.MsgProductUpdated, view.Success)
	assert.Empty(t, view.Error)
	assert.False(t, view.Saving)

	select {
	case <-form.Navigated():
	case <-time.After(time.Second):
		t.Fatal("form did not navigate after save")
	}

	navigations := 0
	for done := false; !done; {
		select {
		case ev := <-events:
			if ev.Type == EventNavigate {
				navigations++
				assert.Equal(t, "/dashboard/view-product", ev.Target)
			}
		case <-time.After(50 * time.Millisecond):
			done = true
		}
	}
	assert.Equal(t, 1, navigations)
}

func TestSubmitStoreFailureKeepsForm(t *testing.T) {
	repo := &fakeProductRepo{updateErr: errors.New("permission denied")}
	uc := newEditUseCase(repo, &fakeCategoryRepo{})
	form := loadedForm(t, milk())
	require.NoError(t, form.UpdateField("name", "Toned Milk"))

	err := uc.Submit(context.Background(), form)
	var updateErr *domain.UpdateError
	require.ErrorAs(t, err, &updateErr)

	view := form.Snapshot()
	assert.Equal(t, "Failed to update product: permission denied", view.Error)
	assert.Empty(t, view.Success)
	assert.False(t, view.Saving)
	assert.Equal(t, "Toned Milk", view.Product.Name)

	select {
	case <-form.Navigated():
		t.Fatal("form navigated after failed save")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestSubmitWhileSaving(t *testing.T) {
	repo := &fakeProductRepo{}
	uc := newEditUseCase(repo, &fakeCategoryRepo{})
	form := loadedForm(t, milk())
	require.True(t, form.beginSaving())

	assert.ErrorIs(t, uc.Submit(context.Background(), form), ErrSaveInProgress)
	assert.Zero(t, repo.updateCount())
}

func TestSubmitThroughDocumentStoreMergesFields(t *testing.T) {
	store := seededStore(t, map[string]interface{}{
		"name":          "Milk",
		"imageBase64":   "data:image/png;base64,AAA",
		"originalPrice": 50,
		"shelfLife":     7,
		"imported":      "Yes",
		"barcode":       "8901234",
	})
	uc := newEditUseCase(repository.NewDocumentProductRepository(store, newTestLogger()),
		repository.NewDocumentCategoryRepository(store, newTestLogger()))

	form, err := uc.Open(context.Background(), "p1")
	require.NoError(t, err)
	require.NoError(t, form.UpdateField("offer", "10"))
	require.NoError(t, uc.Submit(context.Background(), form))

	doc, err := store.GetDocument(context.Background(), domain.ProductsCollection, "p1")
	require.NoError(t, err)
	assert.Equal(t, "45.00", doc.Fields["salePrice"])
	assert.Equal(t, "10", doc.Fields["offer"])
	assert.Equal(t, false, doc.Fields["organic"])
	assert.Equal(t, true, doc.Fields["imported"])
	assert.Equal(t, float64(50), doc.Fields["originalPrice"])
	assert.Equal(t, float64(7), doc.Fields["shelfLife"])
	assert.Equal(t, "8901234", doc.Fields["barcode"])
	assert.NotContains(t, doc.Fields, "id")
}
