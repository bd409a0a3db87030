// domain/product.go
package domain

import "context"

const ProductsCollection = "products"

type StockStatus string

const (
	StockAvailable  StockStatus = "Available"
	StockOutOfStock StockStatus = "Out of Stock"
)

func (s StockStatus) Valid() bool {
	return s == StockAvailable || s == StockOutOfStock
}

// Product is the editable product record. Price fields hold the values the
// edit form holds; SalePrice is derived from OriginalPrice and Offer.
type Product struct {
	ID              string   `json:"id" mapstructure:"-"`
	Name            string   `json:"name" mapstructure:"name"`
	Brand           string   `json:"brand" mapstructure:"brand"`
	Weight          string   `json:"weight" mapstructure:"weight"`
	Description     string   `json:"description" mapstructure:"description"`
	Stock           string   `json:"stock" mapstructure:"stock"`
	Category        string   `json:"category" mapstructure:"category"`
	ImageBase64     string   `json:"imageBase64" mapstructure:"imageBase64"`
	SubImagesBase64 []string `json:"subImagesBase64" mapstructure:"subImagesBase64"`
	OriginalPrice   string   `json:"originalPrice" mapstructure:"originalPrice"`
	Offer           string   `json:"offer" mapstructure:"offer"`
	SalePrice       string   `json:"salePrice" mapstructure:"salePrice"`
	PackedDate      string   `json:"packedDate" mapstructure:"packedDate"`
	ExpiryDate      string   `json:"expiryDate" mapstructure:"expiryDate"`
	ShelfLife       string   `json:"shelfLife" mapstructure:"shelfLife"`
	Imported        bool     `json:"imported" mapstructure:"imported"`
	Organic         bool     `json:"organic" mapstructure:"organic"`

	// StoredFields holds the document as it was read, so values the form
	// never changed can be written back in their stored form.
	StoredFields map[string]interface{} `json:"-" mapstructure:"-"`
}

// Clone returns a copy that shares no slices with p.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	c.SubImagesBase64 = append([]string{}, p.SubImagesBase64...)
	if p.StoredFields != nil {
		c.StoredFields = make(map[string]interface{}, len(p.StoredFields))
		for k, v := range p.StoredFields {
			c.StoredFields[k] = v
		}
	}
	return &c
}

type ProductRepository interface {
	GetProductByID(ctx context.Context, id string) (*Product, error)
	// UpdateProduct writes the whole record in a single document update.
	UpdateProduct(ctx context.Context, product *Product) error
}
