package catalog

import (
	"github.com/shopspring/decimal"

	store "github.com/medatechnology/storefront"
)

// Wire field names of the product_c entity.
const (
	FieldName           = "name_c"
	FieldDescription    = "description_c"
	FieldPrice          = "price_c"
	FieldOriginalPrice  = "original_price_c"
	FieldCategory       = "category_c"
	FieldSubcategory    = "subcategory_c"
	FieldImages         = "images_c"
	FieldRating         = "rating_c"
	FieldReviewCount    = "review_count_c"
	FieldInStock        = "in_stock_c"
	FieldSpecifications = "specifications_c"
	FieldBrand          = "brand_c"
)

// ProductFields is the projection every product query asks for.
var ProductFields = []string{
	FieldName,
	FieldDescription,
	FieldPrice,
	FieldOriginalPrice,
	FieldCategory,
	FieldSubcategory,
	FieldImages,
	FieldRating,
	FieldReviewCount,
	FieldInStock,
	FieldSpecifications,
	FieldBrand,
}

// SearchFields are matched against the query string by Search.
var SearchFields = []string{FieldName, FieldDescription, FieldCategory, FieldBrand}

// BuildProductSearchQuery is the product search descriptor: one OR group of
// Contains conditions over name, description, category and brand.
func BuildProductSearchQuery(query string) *store.Query {
	return store.BuildSearchQuery(store.EntityProduct, ProductFields, query,
		FieldName, FieldDescription, FieldCategory, FieldBrand)
}

// Specs is the free-form specification sheet of a product.
type Specs map[string]interface{}

type Product struct {
	ID             int             `json:"Id"`
	Name           string          `json:"name_c"`
	Description    string          `json:"description_c"`
	Price          decimal.Decimal `json:"price_c"`
	OriginalPrice  decimal.Decimal `json:"original_price_c"`
	Category       string          `json:"category_c"`
	Subcategory    string          `json:"subcategory_c"`
	Images         []string        `json:"images_c"`
	Rating         float64         `json:"rating_c"`
	ReviewCount    int             `json:"review_count_c"`
	InStock        bool            `json:"in_stock_c"`
	Specifications Specs           `json:"specifications_c"`
	Brand          string          `json:"brand_c"`
}

// Discount is the whole-number percentage the price is below the original
// price, 0 when there is no reduction.
func (p Product) Discount() int {
	if !p.OriginalPrice.IsPositive() || !p.Price.LessThan(p.OriginalPrice) {
		return 0
	}
	off := p.OriginalPrice.Sub(p.Price).Div(p.OriginalPrice).Mul(decimal.NewFromInt(100))
	return int(off.Round(0).IntPart())
}

// DecodeProduct turns a raw product_c record into a Product. Empty image
// entries are dropped; absent specifications decode to an empty Specs.
func DecodeProduct(rec store.Record) (Product, error) {
	p := Product{
		ID:            rec.GetInt(store.FieldID),
		Name:          rec.GetString(FieldName),
		Description:   rec.GetString(FieldDescription),
		Price:         rec.GetDecimal(FieldPrice),
		OriginalPrice: rec.GetDecimal(FieldOriginalPrice),
		Category:      rec.GetString(FieldCategory),
		Subcategory:   rec.GetString(FieldSubcategory),
		Images:        store.SplitLines(rec[FieldImages]),
		Rating:        rec.GetFloat(FieldRating),
		ReviewCount:   rec.GetInt(FieldReviewCount),
		InStock:       rec.GetBool(FieldInStock),
		Brand:         rec.GetString(FieldBrand),
	}
	if err := store.DecodeJSONObject(rec, FieldSpecifications, &p.Specifications); err != nil {
		return Product{}, store.ForEntity(store.EntityProduct, err)
	}
	return p, nil
}

// NewProduct is the input of a create call. InStock defaults to true when
// not set.
type NewProduct struct {
	Name           string
	Description    string
	Price          decimal.Decimal
	OriginalPrice  decimal.Decimal
	Category       string
	Subcategory    string
	Images         []string
	Rating         float64
	ReviewCount    int
	InStock        store.Opt[bool]
	Specifications Specs
	Brand          string
}

func (n NewProduct) CreatePayload() (store.Record, error) {
	specs := "{}"
	if len(n.Specifications) > 0 {
		s, err := store.EncodeJSON(n.Specifications)
		if err != nil {
			return nil, err
		}
		specs = s
	}

	return store.Record{
		FieldName:           n.Name,
		FieldDescription:    n.Description,
		FieldPrice:          store.Amount(n.Price),
		FieldOriginalPrice:  store.Amount(n.OriginalPrice),
		FieldCategory:       n.Category,
		FieldSubcategory:    n.Subcategory,
		FieldImages:         store.JoinLines(n.Images),
		FieldRating:         n.Rating,
		FieldReviewCount:    n.ReviewCount,
		FieldInStock:        n.InStock.OrElse(true),
		FieldSpecifications: specs,
		FieldBrand:          n.Brand,
	}, nil
}

// ProductPatch is a partial product update. Opt fields are sent whenever
// set, zero values included; strings are sent when non-empty.
type ProductPatch struct {
	Name           string
	Description    string
	Price          store.Opt[decimal.Decimal]
	OriginalPrice  store.Opt[decimal.Decimal]
	Category       string
	Subcategory    string
	Images         store.Opt[[]string]
	Rating         store.Opt[float64]
	ReviewCount    store.Opt[int]
	InStock        store.Opt[bool]
	Specifications store.Opt[Specs]
	Brand          string
}

// Payload builds the update record for product id.
func (p ProductPatch) Payload(id int) (store.Record, error) {
	rec := store.Record{store.FieldID: id}

	setString(rec, FieldName, p.Name)
	setString(rec, FieldDescription, p.Description)
	setString(rec, FieldCategory, p.Category)
	setString(rec, FieldSubcategory, p.Subcategory)
	setString(rec, FieldBrand, p.Brand)

	if v, ok := p.Price.Get(); ok {
		rec[FieldPrice] = store.Amount(v)
	}
	if v, ok := p.OriginalPrice.Get(); ok {
		rec[FieldOriginalPrice] = store.Amount(v)
	}
	if v, ok := p.Rating.Get(); ok {
		rec[FieldRating] = v
	}
	if v, ok := p.ReviewCount.Get(); ok {
		rec[FieldReviewCount] = v
	}
	if v, ok := p.InStock.Get(); ok {
		rec[FieldInStock] = v
	}
	if v, ok := p.Images.Get(); ok {
		rec[FieldImages] = store.JoinLines(v)
	}
	if v, ok := p.Specifications.Get(); ok {
		if v == nil {
			v = Specs{}
		}
		s, err := store.EncodeJSON(v)
		if err != nil {
			return nil, err
		}
		rec[FieldSpecifications] = s
	}
	return rec, nil
}

func setString(rec store.Record, field, value string) {
	if value != "" {
		rec[field] = value
	}
}
