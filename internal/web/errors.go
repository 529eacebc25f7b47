package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/colonyops/dayboard/internal/core/personnel"
	"github.com/colonyops/dayboard/internal/core/schedule"
)

// Error codes returned in the "code" field of failed responses.
const (
	CodeStaleVersion   = "stale_version"
	CodeSetMismatch    = "set_mismatch"
	CodeMalformedInput = "malformed_input"
	CodeNotFound       = "not_found"
	CodeDuplicate      = "duplicate"
	CodeBusy           = "busy"
	CodeInternal       = "internal"
)

func (s *Server) fail(c *gin.Context, status int, code, msg string, extra gin.H) {
	body := gin.H{
		"success": false,
		"error":   msg,
		"code":    code,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

// writeError maps domain errors to HTTP responses.
func (s *Server) writeError(c *gin.Context, err error) {
	var conflict *schedule.ConflictError
	var mismatch *schedule.SetMismatchError

	switch {
	case errors.As(err, &conflict):
		s.fail(c, http.StatusConflict, CodeStaleVersion, err.Error(), gin.H{
			"current_data": conflict.Current,
		})
	case errors.As(err, &mismatch):
		s.fail(c, http.StatusUnprocessableEntity, CodeSetMismatch, err.Error(), gin.H{
			"date":       mismatch.Date,
			"missing":    nonNil(mismatch.Missing),
			"unexpected": nonNil(mismatch.Unexpected),
		})
	case errors.Is(err, schedule.ErrMalformedInput), errors.Is(err, personnel.ErrEmptyName):
		s.fail(c, http.StatusBadRequest, CodeMalformedInput, err.Error(), nil)
	case errors.Is(err, schedule.ErrNotFound), errors.Is(err, personnel.ErrNotFound):
		s.fail(c, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case errors.Is(err, personnel.ErrDuplicate):
		s.fail(c, http.StatusConflict, CodeDuplicate, err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		s.fail(c, http.StatusServiceUnavailable, CodeBusy, "resource is busy, retry later", nil)
	default:
		s.log.Error().Ctx(c.Request.Context()).Err(err).Str("path", c.FullPath()).Msg("request failed")
		s.fail(c, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
	}
}

// badRequest reports a body or parameter that could not be decoded.
func (s *Server) badRequest(c *gin.Context, err error) {
	s.fail(c, http.StatusBadRequest, CodeMalformedInput, err.Error(), nil)
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
