package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"

	"github.com/spf13/cast"
)

var (
	ErrFormNotLoaded  = errors.New("product is not loaded")
	ErrSaveInProgress = errors.New("product save already in progress")
	ErrFormClosed     = errors.New("edit session is closed")
)

const (
	EventMessage  = "message"
	EventNavigate = "navigate"

	subscriberCapacity = 16
)

type fieldKind int

const (
	textField fieldKind = iota
	checkboxField
)

var editableFields = map[string]fieldKind{
	"name":          textField,
	"brand":         textField,
	"weight":        textField,
	"description":   textField,
	"stock":         textField,
	"category":      textField,
	"originalPrice": textField,
	"offer":         textField,
	"packedDate":    textField,
	"expiryDate":    textField,
	"shelfLife":     textField,
	"imported":      checkboxField,
	"organic":       checkboxField,
}

// FormEvent is pushed to subscribers when the message slot is set or when
// the form signals navigation away from the edit screen.
type FormEvent struct {
	Type    string `json:"type"`
	Error   string `json:"error,omitempty"`
	Success string `json:"success,omitempty"`
	Target  string `json:"target,omitempty"`
}

// FormView is a point-in-time copy of the form state.
type FormView struct {
	ProductID  string                      `json:"productId"`
	Product    *domain.Product             `json:"product"`
	Categories []domain.SelectableCategory `json:"categories"`
	Preview    string                      `json:"preview,omitempty"`
	Error      string                      `json:"error,omitempty"`
	Success    string                      `json:"success,omitempty"`
	Loading    bool                        `json:"loading"`
	Saving     bool                        `json:"saving"`
	Disabled   bool                        `json:"disabled"`
}

// ProductForm holds one product while it is being edited, together with the
// transient state of the edit screen. It is safe for concurrent use.
type ProductForm struct {
	mu         sync.Mutex
	productID  string
	product    *domain.Product
	categories []domain.SelectableCategory
	preview    string
	errMsg     string
	successMsg string
	loading    bool
	saving     bool
	closed     bool

	navOnce   sync.Once
	navTimer  *time.Timer
	navigated chan struct{}

	subscribers map[int]chan FormEvent
	nextSubID   int
}

func NewProductForm(productID string) *ProductForm {
	return &ProductForm{
		productID:   productID,
		categories:  []domain.SelectableCategory{},
		loading:     true,
		navigated:   make(chan struct{}),
		subscribers: make(map[int]chan FormEvent),
	}
}

func (f *ProductForm) ProductID() string { return f.productID }

func (f *ProductForm) Snapshot() FormView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormView{
		ProductID:  f.productID,
		Product:    f.product.Clone(),
		Categories: append([]domain.SelectableCategory{}, f.categories...),
		Preview:    f.preview,
		Error:      f.errMsg,
		Success:    f.successMsg,
		Loading:    f.loading,
		Saving:     f.saving,
		Disabled:   f.product == nil,
	}
}

// UpdateField stores a new value for one editable field and clears the
// message slot, telling subscribers when it held a message. Checkbox fields store booleans, all others the raw string.
// Changing originalPrice or offer re-derives salePrice when both parse.
func (f *ProductForm) UpdateField(name string, value interface{}) error {
	kind, ok := editableFields[name]
	if !ok {
		return domain.NewValidationError(name, "Field %q cannot be edited.", name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.product == nil {
		return ErrFormNotLoaded
	}

	if kind == checkboxField {
		checked, err := cast.ToBoolE(value)
		if err != nil {
			return domain.NewValidationError(name, "Field %q expects true or false.", name)
		}
		if name == "imported" {
			f.product.Imported = checked
		} else {
			f.product.Organic = checked
		}
	} else {
		text, err := cast.ToStringE(value)
		if err != nil {
			return domain.NewValidationError(name, "Field %q expects a text value.", name)
		}
		setTextField(f.product, name, text)
	}

	if name == "originalPrice" || name == "offer" {
		if sale, ok := DeriveSalePrice(f.product.OriginalPrice, f.product.Offer); ok {
			f.product.SalePrice = sale
		}
	}

	if f.errMsg != "" || f.successMsg != "" {
		f.errMsg = ""
		f.successMsg = ""
		f.publishLocked(FormEvent{Type: EventMessage})
	}
	return nil
}

func setTextField(p *domain.Product, name, value string) {
	switch name {
	case "name":
		p.Name = value
	case "brand":
		p.Brand = value
	case "weight":
		p.Weight = value
	case "description":
		p.Description = value
	case "stock":
		p.Stock = value
	case "category":
		p.Category = value
	case "originalPrice":
		p.OriginalPrice = value
	case "offer":
		p.Offer = value
	case "packedDate":
		p.PackedDate = value
	case "expiryDate":
		p.ExpiryDate = value
	case "shelfLife":
		p.ShelfLife = value
	}
}

// AddPrimaryImage replaces the primary image and the preview.
func (f *ProductForm) AddPrimaryImage(data []byte) error {
	uri, err := EncodeDataURI(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.product == nil {
		return ErrFormNotLoaded
	}
	f.product.ImageBase64 = uri
	f.preview = uri
	return nil
}

// AddSubImages appends the files to the sub-images in the order given.
func (f *ProductForm) AddSubImages(ctx context.Context, files [][]byte) error {
	if len(files) == 0 {
		return nil
	}
	f.mu.Lock()
	loaded := f.product != nil
	f.mu.Unlock()
	if !loaded {
		return ErrFormNotLoaded
	}

	encoded, err := EncodeImages(ctx, files)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFormClosed
	}
	f.product.SubImagesBase64 = append(f.product.SubImagesBase64, encoded...)
	return nil
}

// RemoveSubImage removes the sub-image at index. Out of range is a no-op.
func (f *ProductForm) RemoveSubImage(index int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.product == nil || index < 0 || index >= len(f.product.SubImagesBase64) {
		return
	}
	images := f.product.SubImagesBase64
	f.product.SubImagesBase64 = append(images[:index:index], images[index+1:]...)
}

// Subscribe returns a channel of form events and a function that ends the
// subscription. Events are dropped for subscribers that fall behind.
func (f *ProductForm) Subscribe() (<-chan FormEvent, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan FormEvent, subscriberCapacity)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	id := f.nextSubID
	f.nextSubID++
	f.subscribers[id] = ch
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subscribers[id]; ok {
			delete(f.subscribers, id)
			close(sub)
		}
	}
}

// Navigated is closed once the form has signalled navigation.
func (f *ProductForm) Navigated() <-chan struct{} { return f.navigated }

// Close discards the form: pending navigation is cancelled and subscribers
// are released.
func (f *ProductForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	if f.navTimer != nil {
		f.navTimer.Stop()
	}
	for id, ch := range f.subscribers {
		delete(f.subscribers, id)
		close(ch)
	}
}

func (f *ProductForm) setProduct(p *domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.product = p
	f.preview = p.ImageBase64
}

func (f *ProductForm) setCategories(categories []domain.SelectableCategory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = categories
}

func (f *ProductForm) finishLoading() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
}

func (f *ProductForm) setError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errMsg = msg
	f.successMsg = ""
	f.publishLocked(FormEvent{Type: EventMessage, Error: msg})
}

func (f *ProductForm) setSuccess(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successMsg = msg
	f.errMsg = ""
	f.publishLocked(FormEvent{Type: EventMessage, Success: msg})
}

// productForSave copies the record that Submit sends to the store.
func (f *ProductForm) productForSave() *domain.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.product.Clone()
}

func (f *ProductForm) beginSaving() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saving {
		return false
	}
	f.saving = true
	return true
}

func (f *ProductForm) endSaving() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saving = false
}

func (f *ProductForm) scheduleNavigation(delay time.Duration, target string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if f.navTimer != nil {
		f.navTimer.Stop()
	}
	f.navTimer = time.AfterFunc(delay, func() { f.navigate(target) })
}

func (f *ProductForm) navigate(target string) {
	f.navOnce.Do(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.closed {
			return
		}
		f.publishLocked(FormEvent{Type: EventNavigate, Target: target})
		close(f.navigated)
	})
}

func (f *ProductForm) publishLocked(ev FormEvent) {
	for _, ch := range f.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
