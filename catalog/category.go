package catalog

import store "github.com/medatechnology/storefront"

// Wire field names of the category_c entity. name_c is shared with products.
const (
	FieldSubcategories = "subcategories_c"
	FieldIcon          = "icon_c"
)

var CategoryFields = []string{FieldName, FieldSubcategories, FieldIcon}

type Category struct {
	ID            int      `json:"Id"`
	Name          string   `json:"name_c"`
	Subcategories []string `json:"subcategories_c"`
	Icon          string   `json:"icon_c"`
}

// DecodeCategory turns a raw category_c record into a Category. It cannot
// fail; the error is there to satisfy store.DecodeFunc.
func DecodeCategory(rec store.Record) (Category, error) {
	return Category{
		ID:            rec.GetInt(store.FieldID),
		Name:          rec.GetString(FieldName),
		Subcategories: store.SplitLines(rec[FieldSubcategories]),
		Icon:          rec.GetString(FieldIcon),
	}, nil
}

// HasSubcategory reports whether name is one of the category's subcategories.
func (c Category) HasSubcategory(name string) bool {
	for _, s := range c.Subcategories {
		if s == name {
			return true
		}
	}
	return false
}
