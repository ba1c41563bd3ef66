package repository

import "context"

// Repository defines the basic CRUD operations for any entity type.
// It is the only path between request handling and persistent storage.
type Repository[T any, ID comparable] interface {
	// GetAll retrieves every entity, ordered by ID
	GetAll(ctx context.Context) ([]T, error)

	// GetByID retrieves an entity by its ID
	// Returns ErrNotFound if the entity doesn't exist
	GetByID(ctx context.Context, id ID) (T, error)

	// Create persists a new entity and returns it with its store-assigned ID
	Create(ctx context.Context, entity T) (T, error)

	// Update replaces the stored fields of the entity with the same ID
	// Returns ErrNotFound if the entity doesn't exist
	Update(ctx context.Context, entity T) error

	// Delete removes the entity with the same ID
	// Deleting an entity that doesn't exist is not an error
	Delete(ctx context.Context, entity T) error

	// ExistsByID checks if an entity exists by its ID
	ExistsByID(ctx context.Context, id ID) (bool, error)
}
