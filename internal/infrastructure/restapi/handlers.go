package restapi

import (
	"net/http"
	"strconv"

	"wallet_engine/internal/app/port"
	"wallet_engine/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// APIBalancesResponse is the envelope for the wallet balances endpoint.
type APIBalancesResponse struct {
	Data          entity.AggregatedBalances `json:"data"`
	StatusMessage string                    `json:"status_message"`
}

// APIWorthResponse is the envelope for the wallet worth endpoint.
type APIWorthResponse struct {
	Data          port.WorthResult `json:"data"`
	StatusMessage string           `json:"status_message"`
}

// APIHistoryResponse is the envelope for the address history endpoint.
type APIHistoryResponse struct {
	Data          []port.HistoryEntry `json:"data"`
	StatusMessage string              `json:"status_message"`
}

// WalletHandler serves the engine's HTTP surface.
type WalletHandler struct {
	registry   port.AddressRegistry
	aggregator port.BalanceAggregator
	worth      port.WorthService
	history    port.HistoryService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(
	registry port.AddressRegistry,
	aggregator port.BalanceAggregator,
	worth port.WorthService,
	history port.HistoryService,
) *WalletHandler {
	return &WalletHandler{
		registry:   registry,
		aggregator: aggregator,
		worth:      worth,
		history:    history,
	}
}

// GetWalletBalancesHandler returns the wallet-level balance aggregate.
// The response is a snapshot: a loading aggregate is reported as such, not
// presented as final.
func (h *WalletHandler) GetWalletBalancesHandler(c *gin.Context) {
	addresses, err := h.registry.GetAddresses()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallet addresses"})
		return
	}

	includeAlph := c.DefaultQuery("includeAlph", "true") != "false"
	aggregated := h.aggregator.AggregateWalletBalances(addresses, includeAlph)

	response := APIBalancesResponse{Data: aggregated}
	switch {
	case aggregated.Error:
		response.StatusMessage = "Some balance queries failed. Totals may be incomplete."
	case aggregated.IsLoading:
		response.StatusMessage = "Balances are still loading."
	default:
		response.StatusMessage = "Balances retrieved successfully."
	}
	c.JSON(http.StatusOK, response)
}

// GetWalletWorthHandler returns the wallet's fiat worth with a ranked
// per-token breakdown. The native coin's pseudo entry is part of the
// aggregate so ALPH holdings count toward the headline number.
func (h *WalletHandler) GetWalletWorthHandler(c *gin.Context) {
	addresses, err := h.registry.GetAddresses()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallet addresses"})
		return
	}

	aggregated := h.aggregator.AggregateWalletBalances(addresses, true)
	worth := h.worth.ComputeWorth(aggregated.Tokens)
	worth.IsLoading = worth.IsLoading || aggregated.IsLoading

	response := APIWorthResponse{Data: worth}
	if worth.IsLoading {
		response.StatusMessage = "Worth is still loading."
	} else {
		response.StatusMessage = "Worth computed successfully."
	}
	c.JSON(http.StatusOK, response)
}

// GetAddressTransactionsHandler returns one classified history page of a
// single address.
func (h *WalletHandler) GetAddressTransactionsHandler(c *gin.Context) {
	address := c.Param("address")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	entries, err := h.history.AddressHistory(c.Request.Context(), address, page, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch transaction history"})
		return
	}

	c.JSON(http.StatusOK, APIHistoryResponse{
		Data:          entries,
		StatusMessage: "Transactions retrieved successfully.",
	})
}

// RefreshHandler triggers a balance refresh for the whole address set.
func (h *WalletHandler) RefreshHandler(c *gin.Context) {
	addresses, err := h.registry.GetAddresses()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallet addresses"})
		return
	}

	if err := h.aggregator.Refresh(c.Request.Context(), addresses); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "balance refresh failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status_message": "Refresh completed."})
}
