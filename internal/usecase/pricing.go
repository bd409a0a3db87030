package usecase

import (
	"strconv"
	"strings"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DeriveSalePrice applies a percentage discount to the original price and
// formats the result with exactly two decimals. ok is false when either input
// is not a number, in which case the caller keeps its previous sale price.
func DeriveSalePrice(originalPrice, offer string) (salePrice string, ok bool) {
	price, err := decimal.NewFromString(strings.TrimSpace(originalPrice))
	if err != nil {
		return "", false
	}
	discount, err := decimal.NewFromString(strings.TrimSpace(offer))
	if err != nil {
		return "", false
	}
	sale := price.Sub(price.Mul(discount).Div(hundred))
	return sale.StringFixed(2), true
}

// ValidateProduct runs the checks that must pass before a product is written.
// The required-field check comes first and carries the form's generic message.
func ValidateProduct(p *domain.Product) error {
	if p == nil || p.Name == "" || p.ImageBase64 == "" || p.OriginalPrice == "" {
		return &domain.ValidationError{Message: domain.MsgRequiredFields}
	}

	price, err := decimal.NewFromString(strings.TrimSpace(p.OriginalPrice))
	if err != nil || price.IsNegative() {
		return domain.NewValidationError("originalPrice", "Original price must be a non-negative number.")
	}

	if p.Offer != "" {
		offer, err := decimal.NewFromString(strings.TrimSpace(p.Offer))
		if err != nil || offer.IsNegative() || offer.GreaterThan(hundred) {
			return domain.NewValidationError("offer", "Offer must be a number between 0 and 100.")
		}
	}

	if p.Stock != "" && !domain.StockStatus(p.Stock).Valid() {
		return domain.NewValidationError("stock", "Stock must be either %q or %q.", domain.StockAvailable, domain.StockOutOfStock)
	}

	if p.ShelfLife != "" {
		days, err := strconv.Atoi(strings.TrimSpace(p.ShelfLife))
		if err != nil || days < 0 {
			return domain.NewValidationError("shelfLife", "Shelf life must be a whole number of days.")
		}
	}
	return nil
}
