package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jbweber/homelab/catalog/internal/domain"
	"github.com/jbweber/homelab/catalog/internal/repository"
	"github.com/jbweber/homelab/catalog/internal/validation"
)

// Action and view names
const (
	ActionIndex = "index"
	ViewIndex   = "index"
	ViewDetails = "details"
	ViewCreate  = "create"
	ViewEdit    = "edit"
	ViewDelete  = "delete"
)

// DefaultTimeout bounds each repository call when no timeout is configured
const DefaultTimeout = 5 * time.Second

// ProductsController decides the outcome of each product request.
// It reaches storage only through the repository.
type ProductsController struct {
	repo    repository.ProductRepository
	timeout time.Duration
}

// NewProductsController creates a controller. A non-positive timeout
// selects DefaultTimeout for each repository call.
func NewProductsController(repo repository.ProductRepository, timeout time.Duration) *ProductsController {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ProductsController{repo: repo, timeout: timeout}
}

func (c *ProductsController) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// Index lists every product
func (c *ProductsController) Index(ctx context.Context) (Result, error) {
	ctx, cancel := c.storeContext(ctx)
	defer cancel()

	products, err := c.repo.GetAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list products: %w", err)
	}
	return RenderView(ViewIndex, products), nil
}

// Details shows a single product
func (c *ProductsController) Details(ctx context.Context, id *int64) (Result, error) {
	return c.show(ctx, id, ViewDetails)
}

// CreateForm shows an empty product form
func (c *ProductsController) CreateForm(ctx context.Context) (Result, error) {
	return RenderView(ViewCreate, domain.Product{}), nil
}

// CreateSubmit persists a bound product when its model state is valid
func (c *ProductsController) CreateSubmit(ctx context.Context, product domain.Product, state *validation.ModelState) (Result, error) {
	if !state.IsValid() {
		return RenderView(ViewCreate, product), nil
	}

	ctx, cancel := c.storeContext(ctx)
	defer cancel()

	if _, err := c.repo.Create(ctx, product); err != nil {
		return Result{}, fmt.Errorf("failed to create product: %w", err)
	}
	return Redirect(ActionIndex), nil
}

// EditForm shows the edit form for a product
func (c *ProductsController) EditForm(ctx context.Context, id *int64) (Result, error) {
	return c.show(ctx, id, ViewEdit)
}

// EditSubmit replaces the stored fields of product. The route id must
// match the submitted product id.
func (c *ProductsController) EditSubmit(ctx context.Context, id int64, product domain.Product, state *validation.ModelState) (Result, error) {
	if id != product.ID {
		return NotFound(), nil
	}
	if !state.IsValid() {
		return RenderView(ViewEdit, product), nil
	}

	ctx, cancel := c.storeContext(ctx)
	defer cancel()

	exists, err := c.repo.ExistsByID(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("failed to check product %d: %w", id, err)
	}
	if !exists {
		return NotFound(), nil
	}

	if err := c.repo.Update(ctx, product); err != nil {
		// Removed between the existence check and the update
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound(), nil
		}
		return Result{}, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return Redirect(ActionIndex), nil
}

// DeleteConfirm shows the delete confirmation for a product
func (c *ProductsController) DeleteConfirm(ctx context.Context, id *int64) (Result, error) {
	if id == nil {
		return NotFound(), nil
	}
	return c.show(ctx, id, ViewDelete)
}

// DeleteExecute removes a product
func (c *ProductsController) DeleteExecute(ctx context.Context, id int64) (Result, error) {
	ctx, cancel := c.storeContext(ctx)
	defer cancel()

	product, err := c.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound(), nil
		}
		return Result{}, fmt.Errorf("failed to find product %d: %w", id, err)
	}

	if err := c.repo.Delete(ctx, product); err != nil {
		return Result{}, fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return Redirect(ActionIndex), nil
}

// show loads a product and renders view, redirecting to the list when no id was given
func (c *ProductsController) show(ctx context.Context, id *int64, view string) (Result, error) {
	if id == nil {
		return Redirect(ActionIndex), nil
	}

	ctx, cancel := c.storeContext(ctx)
	defer cancel()

	product, err := c.repo.GetByID(ctx, *id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound(), nil
		}
		return Result{}, fmt.Errorf("failed to find product %d: %w", *id, err)
	}
	return RenderView(view, product), nil
}
