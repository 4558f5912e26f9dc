package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/execkit/errors"
)

// DataResponse is the standard success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError derives the status and structured body from err. Errors
// that are not AppErrors are sent as a generic 500.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
}

// respondWithErrorDetails is RespondWithError with extra details merged into
// the body. The error itself is left untouched.
func respondWithErrorDetails(c *gin.Context, err error, extra map[string]any) {
	appErr := apperrors.Wrap(err)
	resp := appErr.ToResponse()
	details := make(map[string]any, len(resp.Error.Details)+len(extra))
	for k, v := range resp.Error.Details {
		details[k] = v
	}
	for k, v := range extra {
		details[k] = v
	}
	resp.Error.Details = details
	c.JSON(appErr.HTTPStatus(), resp)
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondAccepted sends a 202 response wrapping data.
func RespondAccepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, DataResponse{Data: data})
}
