package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetParamReadsPatCaptures(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/trade/7/edit?id=ignored", nil)
	if got := getParam(r, "id"); got != "" {
		t.Fatalf("plain query values are not path params, got %q", got)
	}
	routeParam(r, "id", "7")
	if got := getParam(r, "id"); got != "7" {
		t.Fatalf("expected 7, got %q", got)
	}
}
