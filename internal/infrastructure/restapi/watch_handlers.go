package restapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
	"github.com/peterhaasme/time-portfolio/internal/app/presenter"
	"github.com/peterhaasme/time-portfolio/internal/app/service"
)

// WatchManager is the session API the handlers need.
type WatchManager interface {
	Start(address string) (string, error)
	Update(id, address string) error
	Latest(id string) (presenter.View, bool)
	Stop(id string) error
}

// APIWatchRequest is the body of watch create and update calls.
type APIWatchRequest struct {
	Address string `json:"address"`
}

// APIWatchCreatedResponse is returned by POST /watches.
type APIWatchCreatedResponse struct {
	ID string `json:"id"`
}

// WatchHandler exposes refresh sessions over HTTP.
type WatchHandler struct {
	watches WatchManager
	logger  port.Logger
}

// NewWatchHandler creates a WatchHandler.
func NewWatchHandler(watches WatchManager, logger port.Logger) *WatchHandler {
	if logger == nil {
		logger = port.NopLogger{}
	}
	return &WatchHandler{watches: watches, logger: logger}
}

// CreateWatchHandler starts a session. An empty address is allowed and shows zeros.
func (h *WatchHandler) CreateWatchHandler(c *gin.Context) {
	var req APIWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	id, err := h.watches.Start(req.Address)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, APIWatchCreatedResponse{ID: id})
}

// UpdateWatchHandler changes the address of a session.
func (h *WatchHandler) UpdateWatchHandler(c *gin.Context) {
	var req APIWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if err := h.watches.Update(c.Param("id"), req.Address); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetWatchHandler returns the latest rendered view of a session.
func (h *WatchHandler) GetWatchHandler(c *gin.Context) {
	view, ok := h.watches.Latest(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, APIErrorResponse{Error: service.ErrWatchNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteWatchHandler stops a session.
func (h *WatchHandler) DeleteWatchHandler(c *gin.Context) {
	if err := h.watches.Stop(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WatchHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrWatchNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrTooManyWatches):
		status = http.StatusTooManyRequests
	default:
		h.logger.Error("Watch request failed", "error", err)
	}
	c.JSON(status, APIErrorResponse{Error: err.Error()})
}
