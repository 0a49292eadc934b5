package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/models"
)

// QueryHandler serves path expression, label and closure endpoints.
type QueryHandler struct {
	svc QueryService
	log *logrus.Logger
}

// NewQueryHandler creates a QueryHandler with the given service and logger.
func NewQueryHandler(svc QueryService, log *logrus.Logger) *QueryHandler {
	return &QueryHandler{svc: svc, log: log}
}

// Walk handles POST /api/v1/walk.
func (h *QueryHandler) Walk(c *gin.Context) {
	var req models.WalkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	result, err := h.svc.Walk(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, err, "walking")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":    "query.walk",
		"steps":     len(req.Steps),
		"count":     result.Count,
		"truncated": result.Truncated,
	}).Debug("audit")

	c.JSON(http.StatusOK, result)
}

// Labels handles GET /api/v1/labels?node=.
func (h *QueryHandler) Labels(c *gin.Context) {
	node := models.Node(c.Query("node"))
	if err := validateParam("node", string(node)); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	labels, err := h.svc.Labels(c.Request.Context(), node)
	if err != nil {
		respondServiceError(c, h.log, err, "resolving labels")

		return
	}

	c.JSON(http.StatusOK, gin.H{"node": node, "labels": labels})
}

// Find handles GET /api/v1/find?label=.
func (h *QueryHandler) Find(c *gin.Context) {
	label := c.Query("label")
	if err := validateParam("label", label); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	nodes, err := h.svc.Find(c.Request.Context(), label)
	if err != nil {
		respondServiceError(c, h.log, err, "finding nodes by label")

		return
	}

	c.JSON(http.StatusOK, gin.H{"label": label, "nodes": nodes})
}

// Closure handles POST /api/v1/closure.
func (h *QueryHandler) Closure(c *gin.Context) {
	var req models.ClosureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	result, err := h.svc.Closure(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, err, "running closure")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":    "query.closure",
		"predicate": req.Predicate,
		"records":   len(result.Records),
	}).Debug("audit")

	c.JSON(http.StatusOK, result)
}

// Related handles GET /api/v1/related?term=&predicate=.
func (h *QueryHandler) Related(c *gin.Context) {
	term := c.Query("term")
	if err := validateParam("term", term); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	predicate := models.Node(c.Query("predicate"))

	labels, err := h.svc.Related(c.Request.Context(), term, predicate)
	if err != nil {
		respondServiceError(c, h.log, err, "finding related labels")

		return
	}

	c.JSON(http.StatusOK, gin.H{"term": term, "labels": labels})
}
