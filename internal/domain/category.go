package domain

import "context"

const CategoriesCollection = "categories"

type CategoryType string

const (
	CategoryMain CategoryType = "main"
	CategorySub  CategoryType = "sub"
)

type Category struct {
	ID       string       `json:"id" mapstructure:"-"`
	Name     string       `json:"name" mapstructure:"name"`
	Type     CategoryType `json:"type" mapstructure:"type"`
	ParentID string       `json:"parentId,omitempty" mapstructure:"parentId"`
}

// SelectableCategory is a sub-category as offered in the category picker.
// Name is what gets stored on the product, Label is display only.
type SelectableCategory struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]Category, error)
}
