package restapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router.
func SetupRouter(handler *WalletHandler) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/wallet/balances", handler.GetWalletBalancesHandler)
		v1.GET("/wallet/worth", handler.GetWalletWorthHandler)
		v1.POST("/wallet/refresh", handler.RefreshHandler)
		v1.GET("/addresses/:address/transactions", handler.GetAddressTransactionsHandler)
	}

	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	return router
}
