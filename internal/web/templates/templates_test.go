package templates

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewParsesAllPages(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range []string{"forbidden.gohtml", "trade_list.gohtml", "trade_form.gohtml", "trade_edit.gohtml"} {
		if _, ok := e.templates[name]; !ok {
			t.Errorf("missing template %s", name)
		}
	}
}

func TestExecuteTemplateUnknown(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.ExecuteTemplate(&bytes.Buffer{}, "nope.gohtml", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestForbiddenPage(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	if err := e.ExecuteTemplate(&buf, "forbidden.gohtml", map[string]string{"Message": "You must be an admin to see this page"}); err != nil {
		t.Fatalf("ExecuteTemplate: %v", err)
	}
	if !strings.Contains(buf.String(), "You must be an admin to see this page") {
		t.Fatalf("message missing from %s", buf.String())
	}
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"trade_type": "Trade Type",
		"name":       "Name",
		"":           "",
	}
	for in, want := range tests {
		if got := label(in); got != want {
			t.Errorf("label(%q) = %q, want %q", in, got, want)
		}
	}
}
