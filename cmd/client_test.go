package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIClientGetDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"hello": "world"})
	}))
	defer srv.Close()

	endpoint = srv.URL
	c := newAPIClient()

	var out map[string]string
	if err := c.get(context.Background(), "/anything", nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["hello"] != "world" {
		t.Errorf("expected hello=world, got %v", out)
	}
}

func TestAPIClientSurfacesNonOKAsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusConflict)
	}))
	defer srv.Close()

	endpoint = srv.URL
	c := newAPIClient()

	err := c.get(context.Background(), "/anything", nil, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	apiErr, ok := err.(*apiError)
	if !ok {
		t.Fatalf("expected *apiError, got %T", err)
	}
	if apiErr.status != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, apiErr.status)
	}
}
