package http

import (
	"time"

	"github.com/marwilliams/reservo/internal/resource"
)

// CreateRequest is the POST /resources request body. Resources are
// provisioned out-of-band from the booking engine's own external
// interface; this is the administrative side-channel that creates the
// rows the booking engine then references.
type CreateRequest struct {
	Name string `json:"name" binding:"required"`
}

type Response struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewResponse(r *resource.Resource) Response {
	return Response{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt.UTC()}
}
