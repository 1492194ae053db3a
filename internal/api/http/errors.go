package http

import (
	"errors"
	"fmt"
	"net/http"

	"code.cloudfoundry.org/bytefmt"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/types"
	"github.com/GriffinCanCode/LanDrop/backend/internal/storage"
)

// statusOf maps a storage error kind to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, storage.ErrValidation), errors.Is(err, storage.ErrFileTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the uniform failure body. msg is the client facing
// summary; internal details of IO failures stay in the log.
func (h *Handlers) respondError(c *gin.Context, msg string, err error) {
	status := statusOf(err)
	kind := storage.KindOf(err)

	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		msg = fmt.Sprintf("file size exceeds limit (%s)", limitLabel(h.store.MaxFileSize()))
	case status == http.StatusInternalServerError:
		h.logger.Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	default:
		msg = fmt.Sprintf("%s: %v", msg, clientReason(err))
		h.logger.Debug("Request rejected", zap.Error(err))
	}

	c.Error(err)
	c.AbortWithStatusJSON(status, types.ErrorResponse{
		Success: false,
		Message: msg,
		Error:   kind,
	})
}

func clientReason(err error) string {
	var opErr *storage.OpError
	if errors.As(err, &opErr) {
		if opErr.Err != nil && !errors.Is(opErr.Kind, storage.ErrIO) {
			return opErr.Err.Error()
		}
		return opErr.Kind.Error()
	}
	return err.Error()
}

// limitLabel renders the size limit as whole megabytes when it is one.
func limitLabel(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return bytefmt.ByteSize(uint64(n))
}

func validationError(op, reason string) error {
	return &storage.OpError{Op: op, Kind: storage.ErrValidation, Err: errors.New(reason)}
}
