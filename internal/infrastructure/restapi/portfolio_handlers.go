package restapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
	"github.com/peterhaasme/time-portfolio/internal/app/presenter"
	"github.com/peterhaasme/time-portfolio/internal/app/validator"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

// APIPortfolioResponse is the body of GET /portfolio/:address.
type APIPortfolioResponse struct {
	View          presenter.View          `json:"view"`
	ServiceErrors []entity.PortfolioError `json:"service_errors,omitempty"`
	StatusMessage string                  `json:"status_message"`
}

// APIValidityResponse is the body of GET /address/:address/validity.
type APIValidityResponse struct {
	Address string `json:"address"`
	State   string `json:"state"`
	Valid   bool   `json:"valid"`
	Invalid bool   `json:"invalid"`
}

// APIErrorResponse is returned for request-level failures.
type APIErrorResponse struct {
	Error string `json:"error"`
}

// PortfolioHandler обрабатывает запросы по одному адресу.
type PortfolioHandler struct {
	portfolioService port.PortfolioService
	validator        *validator.AddressValidator
	tokens           []entity.TokenDescriptor
	logger           port.Logger
}

// NewPortfolioHandler creates a PortfolioHandler for the given tracked tokens.
func NewPortfolioHandler(ps port.PortfolioService, v *validator.AddressValidator, tokens []entity.TokenDescriptor, logger port.Logger) *PortfolioHandler {
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = port.NopLogger{}
	}
	return &PortfolioHandler{portfolioService: ps, validator: v, tokens: tokens, logger: logger}
}

// GetValidityHandler reports the tri-state validity of an address. It never
// touches the network.
func (h *PortfolioHandler) GetValidityHandler(c *gin.Context) {
	address := c.Param("address")
	state := h.validator.Evaluate(address)
	c.JSON(http.StatusOK, APIValidityResponse{
		Address: address,
		State:   state.String(),
		Valid:   state == entity.AddressValid,
		Invalid: state == entity.AddressInvalid,
	})
}

// GetPortfolioHandler computes one snapshot for the address in the path.
func (h *PortfolioHandler) GetPortfolioHandler(c *gin.Context) {
	address := c.Param("address")
	snapshot, err := h.portfolioService.ComputeSnapshot(c.Request.Context(), address, h.tokens)

	response := APIPortfolioResponse{
		View:          presenter.Build(snapshot),
		ServiceErrors: snapshot.Errors(),
	}

	switch {
	case snapshot.State != entity.AddressValid:
		response.StatusMessage = "Invalid wallet address."
		c.JSON(http.StatusBadRequest, response)
		return
	case err != nil && errors.Is(err, entity.ErrPartialResult):
		h.logger.Warn("Portfolio served with errors", "holder", snapshot.Holder, "error", err)
		response.StatusMessage = "Portfolio retrieved. Some balances or prices are unavailable."
	case err != nil:
		h.logger.Error("Portfolio computation failed", "holder", address, "error", err)
		c.JSON(http.StatusInternalServerError, APIErrorResponse{Error: err.Error()})
		return
	default:
		response.StatusMessage = "Portfolio retrieved successfully."
	}
	c.JSON(http.StatusOK, response)
}
