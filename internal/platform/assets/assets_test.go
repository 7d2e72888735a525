package assets

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesWorldgenScript(t *testing.T) {
	handler := Handler("/assets/")
	req := httptest.NewRequest("GET", "/assets/worldgen.js", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "worldgen") {
		t.Fatal("expected worldgen client script body")
	}
	if got := rec.Header().Get("Cache-Control"); !strings.Contains(got, "max-age") {
		t.Fatalf("cache-control = %q", got)
	}
}

func TestHandlerUnknownFile(t *testing.T) {
	handler := Handler("/assets/")
	req := httptest.NewRequest("GET", "/assets/missing.js", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != 404 {
		t.Fatalf("status = %d", rec.Code)
	}
}
