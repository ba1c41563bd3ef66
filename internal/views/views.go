package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/jbweber/homelab/catalog/internal/domain"
	"github.com/jbweber/homelab/catalog/internal/validation"
)

//go:embed templates/*.html
var files embed.FS

// Page names rendered outside the controller's views
const (
	PageNotFound = "notfound"
	PageError    = "error"
)

var titles = map[string]string{
	"index":      "Products",
	"details":    "Product details",
	"create":     "Create product",
	"edit":       "Edit product",
	"delete":     "Delete product",
	PageNotFound: "Not found",
	PageError:    "Error",
}

// Page is the data passed to every template
type Page struct {
	Title     string
	Model     any
	State     *validation.ModelState
	Form      url.Values // Submitted form values, re-displayed on invalid input
	RequestID string
}

// Renderer executes the embedded templates
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page together with the shared layout and partials
func New() (*Renderer, error) {
	funcs := template.FuncMap{"value": fieldValue}

	r := &Renderer{pages: make(map[string]*template.Template, len(titles))}
	for name := range titles {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(files,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render writes the named page to w. Nothing is written if execution fails.
func (r *Renderer) Render(w io.Writer, name string, page Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown view %q", name)
	}
	if page.Title == "" {
		page.Title = titles[name]
	}
	if page.State == nil {
		page.State = validation.NewModelState()
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// fieldValue returns the submitted value of a form field, falling back to the product model
func fieldValue(page Page, field string) string {
	if page.Form != nil {
		if _, ok := page.Form[field]; ok {
			return page.Form.Get(field)
		}
	}

	p, ok := page.Model.(domain.Product)
	if !ok {
		return ""
	}
	switch field {
	case "name":
		return p.Name
	case "color":
		return p.Color
	case "price":
		if p.ID == 0 && p.Name == "" && p.Price.IsZero() {
			return ""
		}
		return p.Price.String()
	default:
		return ""
	}
}
