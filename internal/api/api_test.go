package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/granjapro/granja/internal/engine"
)

func setupTestRouter() (*gin.Engine, *Handler) {
	gin.SetMode(gin.TestMode)
	store := engine.NewMemStore(nil, nil)
	h := &Handler{Store: store}
	r := gin.New()
	h.Register(r.Group("/api"))
	return r, h
}

func TestGetCollections(t *testing.T) {
	r, h := setupTestRouter()
	h.Store.Put("lots", "l1", []byte(`{"code":"A"}`))

	req, _ := http.NewRequest(http.MethodGet, "/api/collections", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var collections []string
	json.Unmarshal(w.Body.Bytes(), &collections)
	if len(collections) != 1 || collections[0] != "lots" {
		t.Errorf("Expected [lots], got %v", collections)
	}
}

func TestGetCollectionAndDocument(t *testing.T) {
	r, h := setupTestRouter()
	h.Store.Put("lots", "l1", []byte(`{"code":"A"}`))

	req, _ := http.NewRequest(http.MethodGet, "/api/collections/lots", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var docs map[string]map[string]string
	json.Unmarshal(w.Body.Bytes(), &docs)
	if docs["l1"]["code"] != "A" {
		t.Errorf("Expected code A, got %v", docs)
	}

	req, _ = http.NewRequest(http.MethodGet, "/api/collections/lots/l1", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var doc map[string]string
	json.Unmarshal(w.Body.Bytes(), &doc)
	if doc["code"] != "A" {
		t.Errorf("Expected code A, got %v", doc)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	r, _ := setupTestRouter()

	req, _ := http.NewRequest(http.MethodGet, "/api/collections/lots/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestWritesAreNotRouted(t *testing.T) {
	r, _ := setupTestRouter()

	req, _ := http.NewRequest(http.MethodPost, "/api/collections/lots/l1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code == http.StatusOK {
		t.Errorf("POST should not be accepted, got %d", w.Code)
	}
}
