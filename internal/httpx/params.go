package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "cartline/internal/errors"
)

// UintParam parses a positive integer path parameter.
func UintParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewValidationError("invalid "+name, apperrors.ValidationDetail{
			Field:   name,
			Message: name + " must be a positive integer",
		})
	}
	return uint(id), nil
}
