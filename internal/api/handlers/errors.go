// internal/api/handlers/errors.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stackvity/receipt-gateway/internal/domain"
	"github.com/stackvity/receipt-gateway/internal/utils"
)

// respondDomainError maps the internal/domain error taxonomy onto the HTTP
// status codes spec §6 assigns them: ValidationError -> 400,
// NotFoundError -> 404, everything else (BackendError, InternalError,
// unrecognized errors) -> 500.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFoundError(err):
		utils.RespondWithError(c, http.StatusNotFound, err.Error())
	case isValidationError(err):
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(c, http.StatusInternalServerError, "internal server error")
	}
}

func isValidationError(err error) bool {
	_, ok := err.(*domain.ValidationError)
	return ok
}
