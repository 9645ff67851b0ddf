package catalogRepo

import (
	"errors"

	"taskora/models"
)

// ErrNotFound is returned when a service or category does not exist.
var ErrNotFound = errors.New("catalog entry not found")

// CatalogRepository reads services, categories and their commission rules.
// The engine composes these as fetch-by-id calls; there is no object graph.
type CatalogRepository interface {
	GetService(id string) (*models.Service, error)
	GetCategory(id string) (*models.Category, error)

	// ActiveServicesByCategory returns every active service in a category,
	// one per offering provider.
	ActiveServicesByCategory(categoryID string) ([]models.Service, error)
}
