// Package catalog is the product and category façade over the product_c and
// category_c entities of a store.Client.
package catalog

import (
	"context"
	"sort"

	store "github.com/medatechnology/storefront"
)

// Service exposes the catalog operations. Every method makes at most one
// backend call; failures are logged and come back as empty values.
type Service struct {
	runner *store.Runner
}

type Option func(*Service)

// WithLogger sets the logger failures are reported to.
func WithLogger(logger store.Logger) Option {
	return func(s *Service) {
		s.runner.Logger = logger
	}
}

func NewService(client store.Client, opts ...Option) *Service {
	s := &Service{runner: store.NewRunner(client, nil)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Products returns every product.
func (s *Service) Products(ctx context.Context) []Product {
	return store.List(ctx, s.runner, store.BuildListQuery(store.EntityProduct, ProductFields), DecodeProduct)
}

// Product returns one product, or nil.
func (s *Service) Product(ctx context.Context, id int) *Product {
	return store.Get(ctx, s.runner, id, store.BuildListQuery(store.EntityProduct, ProductFields), DecodeProduct)
}

// ProductsByCategory returns the products whose category equals category.
func (s *Service) ProductsByCategory(ctx context.Context, category string) []Product {
	q := store.BuildFilterQuery(store.EntityProduct, ProductFields, FieldCategory, store.OpEqualTo, category)
	return store.List(ctx, s.runner, q, DecodeProduct)
}

// Search returns the products whose name, description, category or brand
// contains query. Matching, including its case rules, is up to the backend.
func (s *Service) Search(ctx context.Context, query string) []Product {
	return store.List(ctx, s.runner, BuildProductSearchQuery(query), DecodeProduct)
}

// Brands returns the distinct non-empty brands of all products in
// lexicographic order.
func (s *Service) Brands(ctx context.Context) []string {
	return DistinctBrands(s.Products(ctx))
}

// DistinctBrands is the derivation behind Brands.
func DistinctBrands(products []Product) []string {
	seen := make(map[string]struct{}, len(products))
	brands := []string{}
	for _, p := range products {
		if p.Brand == "" {
			continue
		}
		if _, ok := seen[p.Brand]; ok {
			continue
		}
		seen[p.Brand] = struct{}{}
		brands = append(brands, p.Brand)
	}
	sort.Strings(brands)
	return brands
}

// CreateProduct adds a product and returns it as stored, or nil.
func (s *Service) CreateProduct(ctx context.Context, in NewProduct) *Product {
	payload, err := in.CreatePayload()
	if err != nil {
		s.runner.Report(store.WrapCreateError(err, store.EntityProduct), "CREATE", store.EntityProduct)
		return nil
	}
	return store.Create(ctx, s.runner, store.EntityProduct, payload, DecodeProduct)
}

// UpdateProduct applies a patch to product id and returns the updated
// product, or nil.
func (s *Service) UpdateProduct(ctx context.Context, id int, patch ProductPatch) *Product {
	payload, err := patch.Payload(id)
	if err != nil {
		s.runner.Report(store.WrapUpdateError(err, store.EntityProduct), "UPDATE", store.EntityProduct)
		return nil
	}
	return store.Update(ctx, s.runner, store.EntityProduct, payload, DecodeProduct)
}

// DeleteProduct removes product id.
func (s *Service) DeleteProduct(ctx context.Context, id int) bool {
	return store.Delete(ctx, s.runner, store.EntityProduct, id)
}

// Categories returns every category.
func (s *Service) Categories(ctx context.Context) []Category {
	return store.List(ctx, s.runner, store.BuildListQuery(store.EntityCategory, CategoryFields), DecodeCategory)
}

// Category returns one category, or nil.
func (s *Service) Category(ctx context.Context, id int) *Category {
	return store.Get(ctx, s.runner, id, store.BuildListQuery(store.EntityCategory, CategoryFields), DecodeCategory)
}
