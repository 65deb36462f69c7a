//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/product")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 8 {
		t.Fatalf("expected 8 products, got %d", len(products))
	}
}

func TestListProducts_Fields(t *testing.T) {
	resp := doGet(t, "/api/product")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)

	var corn *productResponse
	for i := range products {
		if products[i].ID == "maiz-blanco" {
			corn = &products[i]
			break
		}
	}

	if corn == nil {
		t.Fatal("product 'maiz-blanco' not found")
	}
	if corn.Name != "White Corn (Maíz Blanco)" {
		t.Errorf("name: got %q", corn.Name)
	}
	if corn.Price != "2.50" {
		t.Errorf("price: got %q, want 2.50", corn.Price)
	}
	if corn.Category != "grains" {
		t.Errorf("category: got %q, want grains", corn.Category)
	}
	if corn.Unit != "kg" {
		t.Errorf("unit: got %q, want kg", corn.Unit)
	}
	if corn.MinOrderQty != 5 {
		t.Errorf("min_order_qty: got %d, want 5", corn.MinOrderQty)
	}
	if corn.Image.Thumbnail == "" {
		t.Error("image.thumbnail is empty")
	}
	if corn.Image.Mobile == "" {
		t.Error("image.mobile is empty")
	}
	if corn.Image.Desktop == "" {
		t.Error("image.desktop is empty")
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/api/product/cafe-verde")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	product := decodeJSON[productResponse](t, resp)
	if product.ID != "cafe-verde" {
		t.Errorf("id: got %q, want cafe-verde", product.ID)
	}
	if product.Price != "12.00" {
		t.Errorf("price: got %q, want 12.00", product.Price)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/product/no-such-product")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Code != 404 {
		t.Errorf("error code: got %d, want 404", errResp.Code)
	}
}

func TestSearchProducts(t *testing.T) {
	resp := doGet(t, "/api/product/search?q=corn")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 1 {
		t.Fatalf("expected 1 match, got %d", len(products))
	}
	if products[0].ID != "maiz-blanco" {
		t.Errorf("id: got %q, want maiz-blanco", products[0].ID)
	}
}

func TestSearchProducts_SpanishSynonym(t *testing.T) {
	resp := doGet(t, "/api/product/search?q=cassava")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 1 {
		t.Fatalf("expected 1 match, got %d", len(products))
	}
	if products[0].ID != "yuca-dulce" {
		t.Errorf("id: got %q, want yuca-dulce", products[0].ID)
	}
}
