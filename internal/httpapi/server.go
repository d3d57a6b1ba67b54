// Package httpapi exposes the order and catalog façades as a read-only JSON
// API.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	store "github.com/medatechnology/storefront"
	"github.com/medatechnology/storefront/catalog"
	"github.com/medatechnology/storefront/orders"
)

type OrderReader interface {
	History(ctx context.Context) []orders.Order
	ListByStatus(ctx context.Context, status orders.Status) []orders.Order
	Get(ctx context.Context, id int) *orders.Order
}

type CatalogReader interface {
	Products(ctx context.Context) []catalog.Product
	ProductsByCategory(ctx context.Context, category string) []catalog.Product
	Search(ctx context.Context, query string) []catalog.Product
	Product(ctx context.Context, id int) *catalog.Product
	Brands(ctx context.Context) []string
	Categories(ctx context.Context) []catalog.Category
	Category(ctx context.Context, id int) *catalog.Category
}

type Server struct {
	Router  *mux.Router
	Orders  OrderReader
	Catalog CatalogReader
	Logger  store.Logger
}

func NewServer(o OrderReader, c CatalogReader, logger store.Logger) *Server {
	if logger == nil {
		logger = store.GetDefaultLogger()
	}
	s := &Server{Router: mux.NewRouter(), Orders: o, Catalog: c, Logger: logger}

	api := s.Router.PathPrefix("/api").Subrouter()
	api.Use(s.logRequests)
	api.HandleFunc("/orders", s.handleOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.handleOrder).Methods(http.MethodGet)
	api.HandleFunc("/products", s.handleProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", s.handleProduct).Methods(http.MethodGet)
	api.HandleFunc("/brands", s.handleBrands).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id}", s.handleCategory).Methods(http.MethodGet)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.Logger.Debug("http request",
			store.String("method", r.Method),
			store.String("path", r.URL.Path),
			store.Duration("elapsed", time.Since(start)))
	})
}

// GET /api/orders, newest first, optionally ?status=
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	if status := r.URL.Query().Get("status"); status != "" {
		st := orders.Status(status)
		if !st.Valid() {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
		list := s.Orders.ListByStatus(r.Context(), st)
		orders.SortNewestFirst(list)
		writeJSON(w, list)
		return
	}
	writeJSON(w, s.Orders.History(r.Context()))
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	writeOne(w, s.Orders.Get(r.Context(), id))
}

// GET /api/products, ?q= searches, ?category= filters
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Has("q"):
		writeJSON(w, s.Catalog.Search(r.Context(), q.Get("q")))
	case q.Get("category") != "":
		writeJSON(w, s.Catalog.ProductsByCategory(r.Context(), q.Get("category")))
	default:
		writeJSON(w, s.Catalog.Products(r.Context()))
	}
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	writeOne(w, s.Catalog.Product(r.Context(), id))
}

func (s *Server) handleBrands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Catalog.Brands(r.Context()))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Catalog.Categories(r.Context()))
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	writeOne(w, s.Catalog.Category(r.Context(), id))
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// writeOne answers 404 for a nil record.
func writeOne[T any](w http.ResponseWriter, v *T) {
	if v == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, v)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
