package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/jbweber/homelab/catalog/internal/controller"
	"github.com/jbweber/homelab/catalog/internal/domain"
	"github.com/jbweber/homelab/catalog/internal/validation"
	"github.com/jbweber/homelab/catalog/internal/views"
)

// indexHandler handles GET /products
func (a *API) indexHandler(w http.ResponseWriter, r *http.Request) {
	result, err := a.products.Index(r.Context())
	a.respond(w, r, "index", result, err, views.Page{})
}

// detailsHandler handles GET /products/details/{id}. Without an id it redirects to the list.
func (a *API) detailsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(r)
	if !ok {
		a.respond(w, r, "details", controller.NotFound(), nil, views.Page{})
		return
	}
	result, err := a.products.Details(r.Context(), id)
	a.respond(w, r, "details", result, err, views.Page{})
}

// createFormHandler handles GET /products/create
func (a *API) createFormHandler(w http.ResponseWriter, r *http.Request) {
	result, err := a.products.CreateForm(r.Context())
	a.respond(w, r, "create_form", result, err, views.Page{})
}

// createSubmitHandler handles POST /products/create.
//
// Request: form fields "name", "price", "color".
// Invalid input re-renders the form with 422; success redirects to the list.
func (a *API) createSubmitHandler(w http.ResponseWriter, r *http.Request) {
	product, state, err := a.bindProduct(r, false)
	if err != nil {
		a.respond(w, r, "create_submit", controller.Result{}, err, views.Page{})
		return
	}
	result, err := a.products.CreateSubmit(r.Context(), product, state)
	a.respond(w, r, "create_submit", result, err, views.Page{State: state, Form: r.PostForm})
}

// editFormHandler handles GET /products/edit/{id}. Without an id it redirects to the list.
func (a *API) editFormHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(r)
	if !ok {
		a.respond(w, r, "edit_form", controller.NotFound(), nil, views.Page{})
		return
	}
	result, err := a.products.EditForm(r.Context(), id)
	a.respond(w, r, "edit_form", result, err, views.Page{})
}

// editSubmitHandler handles POST /products/edit/{id}. Without an id the product is not found.
//
// Request: form fields "id", "name", "price", "color". The "id" field must
// match the route id, otherwise the product is reported as not found.
func (a *API) editSubmitHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(r)
	if !ok || id == nil {
		a.respond(w, r, "edit_submit", controller.NotFound(), nil, views.Page{})
		return
	}
	product, state, err := a.bindProduct(r, true)
	if err != nil {
		a.respond(w, r, "edit_submit", controller.Result{}, err, views.Page{})
		return
	}
	result, err := a.products.EditSubmit(r.Context(), *id, product, state)
	a.respond(w, r, "edit_submit", result, err, views.Page{State: state, Form: r.PostForm})
}

// deleteConfirmHandler handles GET /products/delete/{id}
func (a *API) deleteConfirmHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(r)
	if !ok {
		a.respond(w, r, "delete_confirm", controller.NotFound(), nil, views.Page{})
		return
	}
	result, err := a.products.DeleteConfirm(r.Context(), id)
	a.respond(w, r, "delete_confirm", result, err, views.Page{})
}

// deleteExecuteHandler handles POST /products/delete/{id}. Without an id the product is not found.
func (a *API) deleteExecuteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(r)
	if !ok || id == nil {
		a.respond(w, r, "delete_execute", controller.NotFound(), nil, views.Page{})
		return
	}
	result, err := a.products.DeleteExecute(r.Context(), *id)
	a.respond(w, r, "delete_execute", result, err, views.Page{})
}

// routeID extracts the optional {id} route parameter.
// A missing id yields nil; a malformed id reports ok=false.
func routeID(r *http.Request) (*int64, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// bindProduct reads a product from the submitted form. Conversion failures
// are recorded in the returned model state before validation runs.
func (a *API) bindProduct(r *http.Request, withID bool) (domain.Product, *validation.ModelState, error) {
	state := validation.NewModelState()
	var product domain.Product

	if err := r.ParseForm(); err != nil {
		state.AddError("", "The submitted form could not be read.")
		return product, state, nil
	}

	if withID {
		if raw := strings.TrimSpace(r.PostForm.Get("id")); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				state.AddError("id", fmt.Sprintf("The value '%s' is not valid for id.", raw))
			} else {
				product.ID = id
			}
		}
	}

	product.Name = strings.TrimSpace(r.PostForm.Get("name"))
	product.Color = strings.TrimSpace(r.PostForm.Get("color"))

	if raw := strings.TrimSpace(r.PostForm.Get("price")); raw == "" {
		state.AddError("price", "The price field is required.")
	} else if price, err := decimal.NewFromString(raw); err != nil {
		state.AddError("price", fmt.Sprintf("The value '%s' is not valid for price.", raw))
	} else {
		product.Price = price
	}

	if err := a.validator.Validate(product, state); err != nil {
		return product, state, err
	}
	return product, state, nil
}
