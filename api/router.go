package api

import (
	"net/http"

	"api_transactions/internal/sales"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig carries everything the HTTP layer depends on.
type RouterConfig struct {
	SalesService *sales.Service
	Loader       CatalogLoader
	Logger       *zap.Logger
	CORSOrigins  []string
}

// NewRouter builds a gin engine with middleware and all routes registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	e := gin.New()
	e.Use(gin.Recovery(), RequestID(), RequestLogger(cfg.Logger), CORS(cfg.CORSOrigins))
	InitRoutes(e, cfg.SalesService, cfg.Loader, cfg.Logger)
	return e
}

// InitRoutes registers the catalog and query endpoints on the given Gin engine.
func InitRoutes(e *gin.Engine, salesService *sales.Service, loader CatalogLoader, logger *zap.Logger) {
	h := NewTransactionsHandler(salesService, loader, logger)

	e.GET("/initialize", h.handleInitialize)
	e.GET("/transactions", h.handleListTransactions)
	e.GET("/statistics", h.handleStatistics)
	e.GET("/barchart", h.handleBarChart)
	e.GET("/piechart", h.handlePieChart)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
