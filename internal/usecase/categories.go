package usecase

import "github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"

// BuildSelectableCategories lists the sub-categories in input order, labelled
// with their main category when it can be found.
func BuildSelectableCategories(categories []domain.Category) []domain.SelectableCategory {
	mains := make(map[string]string)
	for _, c := range categories {
		if c.Type == domain.CategoryMain {
			if _, seen := mains[c.ID]; !seen {
				mains[c.ID] = c.Name
			}
		}
	}

	selectable := []domain.SelectableCategory{}
	for _, c := range categories {
		if c.Type != domain.CategorySub {
			continue
		}
		label := c.Name
		if parent, ok := mains[c.ParentID]; ok {
			label = parent + " → " + c.Name
		}
		selectable = append(selectable, domain.SelectableCategory{
			ID:    c.ID,
			Name:  c.Name,
			Label: label,
		})
	}
	return selectable
}
