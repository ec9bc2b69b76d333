package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

//go:embed *.gohtml
var templateFS embed.FS

// Engine holds the parsed pages keyed by file name.
type Engine struct {
	templates map[string]*template.Template
}

// New parses the embedded templates with helper functions configured.
func New() (*Engine, error) {
	funcMap := template.FuncMap{
		"price": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"label": label,
	}

	base, err := template.New("layout.gohtml").Funcs(funcMap).ParseFS(templateFS, "layout.gohtml")
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(templateFS, ".")
	if err != nil {
		return nil, err
	}

	tmpls := make(map[string]*template.Template)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == "layout.gohtml" {
			continue
		}

		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(templateFS, name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		tmpls[name] = clone
	}

	return &Engine{templates: tmpls}, nil
}

// label turns a form field name such as trade_type into "Trade Type".
func label(field string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(field, "_", " "))
	if cleaned == "" {
		return ""
	}

	runes := []rune(cleaned)
	capitalize := true
	for i, r := range runes {
		if r == ' ' {
			capitalize = true
			continue
		}
		if capitalize {
			runes[i] = unicode.ToUpper(r)
			capitalize = false
		}
	}
	return string(runes)
}

// ExecuteTemplate renders the named template into the writer.
func (e *Engine) ExecuteTemplate(w io.Writer, name string, data interface{}) error {
	tmpl, ok := e.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return tmpl.ExecuteTemplate(w, name, data)
}
