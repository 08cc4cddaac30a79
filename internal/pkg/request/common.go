package request

import "github.com/google/uuid"

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// Validate re-parses the path ID as a UUID. The "uuid" binding tag above
// already rejects malformed input at bind time; this is a second check
// on path parameters only (resource_id in request bodies and queries is
// checked by its binding tag alone).
func (r *ByIDRequest) Validate() error {
	_, err := uuid.Parse(r.ID)
	return err
}
