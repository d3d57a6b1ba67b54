package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	store "github.com/medatechnology/storefront"
	"github.com/medatechnology/storefront/catalog"
	"github.com/medatechnology/storefront/memory"
	"github.com/medatechnology/storefront/orders"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	c := memory.New()
	c.Seed(store.EntityOrder,
		store.Record{"status_c": "delivered", "order_date_c": "2024-01-01T10:00:00.000Z", "total_c": 10.0},
		store.Record{"status_c": "shipped", "order_date_c": "2024-03-01T10:00:00.000Z", "total_c": 20.0},
		store.Record{"status_c": "shipped", "order_date_c": "2024-02-01T10:00:00.000Z", "total_c": 30.0},
	)
	c.Seed(store.EntityProduct,
		store.Record{"name_c": "Bravia", "brand_c": "Sony", "category_c": "TV"},
		store.Record{"name_c": "OLED C3", "brand_c": "LG", "category_c": "TV", "description_c": "Smart TV"},
		store.Record{"name_c": "Xperia", "brand_c": "Sony", "category_c": "Phones"},
	)
	c.Seed(store.EntityCategory, store.Record{"name_c": "TV", "subcategories_c": "OLED\nLCD"})

	noop := store.NewNoopLogger()
	s := NewServer(
		orders.NewService(c, orders.WithLogger(noop)),
		catalog.NewService(c, catalog.WithLogger(noop)),
		noop)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		if out != nil {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
		}
	}
	return resp.StatusCode
}

func TestOrderRoutes(t *testing.T) {
	ts := newTestServer(t)

	var list []orders.Order
	require.Equal(t, http.StatusOK, get(t, ts, "/api/orders", &list))
	require.Len(t, list, 3)
	assert.Equal(t, 2, list[0].ID)
	assert.Equal(t, 1, list[2].ID)

	list = nil
	require.Equal(t, http.StatusOK, get(t, ts, "/api/orders?status=shipped", &list))
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].ID)
	assert.Equal(t, 3, list[1].ID)

	var one orders.Order
	require.Equal(t, http.StatusOK, get(t, ts, "/api/orders/3", &one))
	assert.Equal(t, orders.StatusShipped, one.Status)

	assert.Equal(t, http.StatusNotFound, get(t, ts, "/api/orders/99", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, ts, "/api/orders/abc", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, ts, "/api/orders?status=lost", nil))
}

func TestProductRoutes(t *testing.T) {
	ts := newTestServer(t)
	names := func(list []catalog.Product) []string {
		out := []string{}
		for _, p := range list {
			out = append(out, p.Name)
		}
		return out
	}

	var list []catalog.Product
	require.Equal(t, http.StatusOK, get(t, ts, "/api/products", &list))
	assert.Len(t, list, 3)

	list = nil
	get(t, ts, "/api/products?category=TV", &list)
	assert.Equal(t, []string{"Bravia", "OLED C3"}, names(list))

	list = nil
	get(t, ts, "/api/products?q=smart&category=Phones", &list)
	assert.Equal(t, []string{"OLED C3"}, names(list))

	var p catalog.Product
	require.Equal(t, http.StatusOK, get(t, ts, "/api/products/3", &p))
	assert.Equal(t, "Xperia", p.Name)
	assert.Equal(t, http.StatusNotFound, get(t, ts, "/api/products/42", nil))
}

func TestEmptyResultsAreArrays(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/products?category=Garden")
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.JSONEq(t, `[]`, string(raw))
}

func TestCatalogRoutes(t *testing.T) {
	ts := newTestServer(t)

	var brands []string
	require.Equal(t, http.StatusOK, get(t, ts, "/api/brands", &brands))
	assert.Equal(t, []string{"LG", "Sony"}, brands)

	var cats []catalog.Category
	require.Equal(t, http.StatusOK, get(t, ts, "/api/categories", &cats))
	require.Len(t, cats, 1)

	var cat catalog.Category
	require.Equal(t, http.StatusOK, get(t, ts, "/api/categories/1", &cat))
	assert.Equal(t, []string{"OLED", "LCD"}, cat.Subcategories)
	assert.Equal(t, http.StatusNotFound, get(t, ts, "/api/categories/7", nil))
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/orders", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
