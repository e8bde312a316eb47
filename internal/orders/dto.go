package orders

import (
	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
)

// ListResult is one page of orders plus the cursor for the next.
type ListResult struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
