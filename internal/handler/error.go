package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kutuphane/library-service/internal/errs"
	"github.com/kutuphane/library-service/internal/model"
)

// errorHandler turns every failure into the standard envelope
// {timestamp, status, error, message, path}. Unclassified errors are
// logged with detail and reported generically.
func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal server error"

	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		status = httpErr.Code
		message = fmt.Sprintf("%v", httpErr.Message)
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, errs.ErrBusinessRule), errors.Is(err, errs.ErrValidation):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, errs.ErrConflict):
		status = http.StatusConflict
		message = err.Error()
	default:
		h.log.Error("unclassified error",
			zap.Error(err),
			zap.String("path", c.Request().RequestURI))
	}

	resp := model.ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      c.Request().RequestURI,
	}
	if jsonErr := c.JSON(status, resp); jsonErr != nil {
		h.log.Error("write error response", zap.Error(jsonErr))
	}
}
