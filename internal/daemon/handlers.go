package daemon

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docmatch/internal/api"
	"docmatch/internal/ingest"
	"docmatch/internal/lifecycle"
	"docmatch/internal/logging"
	"docmatch/internal/queue"
)

const (
	maxBundleSize = 8 << 20
	actorHeader   = "X-Actor"
)

type evaluateRequest struct {
	IDs []string `json:"ids"`
}

func (s *apiServer) handleStatus(c *gin.Context) {
	status := s.daemon.Status(c.Request.Context())
	c.JSON(http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		Bind:         status.Bind,
		DatabasePath: status.DatabasePath,
		IndexedSets:  status.IndexedSets,
		Workflow:     api.FromStatusSummary(status.Workflow),
	})
}

func (s *apiServer) handleQueue(c *gin.Context) {
	page, err := s.daemon.queueSvc.QueryValues(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *apiServer) handleSet(c *gin.Context) {
	id := c.Param("id")
	view, err := s.daemon.queueSvc.Describe(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if view == nil {
		s.writeError(c, queue.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *apiServer) handleActivity(c *gin.Context) {
	trail, err := s.daemon.actions.Activity(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": trail})
}

func (s *apiServer) handleImport(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBundleSize+1))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if len(body) > maxBundleSize {
		c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: "bundle too large", Kind: "validation"})
		return
	}
	format := ingest.FormatJSON
	if strings.Contains(c.ContentType(), "yaml") {
		format = ingest.FormatYAML
	}
	sets, err := ingest.DecodeBundle(body, format, "")
	if err != nil {
		s.writeError(c, err)
		return
	}
	result, err := s.daemon.actions.Import(c.Request.Context(), sets, c.GetHeader(actorHeader))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *apiServer) handleRemove(c *gin.Context) {
	if err := s.daemon.actions.Remove(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *apiServer) handleAction(c *gin.Context) {
	action, ok := lifecycle.ParseAction(c.Param("action"))
	if !ok {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "unknown action " + c.Param("action"), Kind: "not_found"})
		return
	}
	var req api.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Kind: "validation"})
		return
	}
	if req.Actor == "" {
		req.Actor = c.GetHeader(actorHeader)
	}
	result, err := s.daemon.actions.Apply(c.Request.Context(), c.Param("id"), action, req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *apiServer) handleEvaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Kind: "validation"})
		return
	}
	view, err := s.daemon.actions.Evaluate(c.Request.Context(), req.IDs)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *apiServer) writeError(c *gin.Context, err error) {
	status, kind := classifyError(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(c.Request.Context(), s.logger), "api request failed", "api_request_failed",
			logging.Error(err),
			logging.String("path", c.FullPath()),
		)
	}
	c.JSON(status, api.ErrorResponse{Error: err.Error(), Kind: kind})
}

// classifyError maps domain errors onto HTTP statuses.
func classifyError(err error) (int, string) {
	if errors.Is(err, ingest.ErrInvalidBundle) {
		return http.StatusBadRequest, "validation"
	}
	switch kind := queue.ErrorKind(err); kind {
	case "validation":
		return http.StatusBadRequest, kind
	case "not_found":
		return http.StatusNotFound, kind
	case "conflict":
		return http.StatusConflict, kind
	default:
		return http.StatusInternalServerError, kind
	}
}
