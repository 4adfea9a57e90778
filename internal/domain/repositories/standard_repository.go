package repositories

import (
	"context"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
)

// StandardRepository defines the interface for construction-standard storage
type StandardRepository interface {
	// Create inserts a standard record
	Create(ctx context.Context, record *entities.StandardRecord) error

	// CreateBatch inserts multiple standard records
	CreateBatch(ctx context.Context, records []entities.StandardRecord) error

	// GetByID retrieves a standard record by ID
	GetByID(ctx context.Context, id int) (*entities.StandardRecord, error)

	// List retrieves standard records with filters
	List(ctx context.Context, filter StandardFilter) ([]entities.StandardRecord, error)

	// Count returns the number of stored records
	Count(ctx context.Context) (int, error)

	// DeleteAll removes every stored record
	DeleteAll(ctx context.Context) error
}

// StandardFilter defines filters for listing standards
type StandardFilter struct {
	Discipline entities.Discipline
	Category   entities.Category
	Limit      int
	Offset     int
}
