package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"api_transactions/internal/catalog"
	"api_transactions/internal/sales"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogLoader is the catalog import the /initialize endpoint triggers.
type CatalogLoader interface {
	Initialize(ctx context.Context) (catalog.Result, error)
}

// monthRequest is the query of every month-scoped aggregate endpoint.
type monthRequest struct {
	Month string `form:"month" binding:"required"`
}

// listRequest is the query of GET /transactions.
type listRequest struct {
	Month   string `form:"month" binding:"required"`
	Search  string `form:"search"`
	Page    int    `form:"page,default=1" binding:"min=1"`
	PerPage int    `form:"perPage,default=10" binding:"min=1"`
}

// transactionsHandler holds the sales service and catalog loader and implements the HTTP handlers.
type transactionsHandler struct {
	salesService *sales.Service
	loader       CatalogLoader
	logger       *zap.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(salesService *sales.Service, loader CatalogLoader, logger *zap.Logger) *transactionsHandler {
	return &transactionsHandler{
		salesService: salesService,
		loader:       loader,
		logger:       logger,
	}
}

// handleInitialize handles GET /initialize.
func (h *transactionsHandler) handleInitialize(ctx *gin.Context) {
	res, err := h.loader.Initialize(ctx.Request.Context())
	if err != nil {
		h.fail(ctx, "failed to initialize database", err)
		return
	}
	ctx.String(http.StatusOK, "Database initialized successfully: %d records inserted", res.Inserted)
}

// handleListTransactions handles GET /transactions.
func (h *transactionsHandler) handleListTransactions(ctx *gin.Context) {
	var req listRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		h.fail(ctx, "invalid transactions query", fmt.Errorf("%w: %v", sales.ErrValidation, err))
		return
	}

	txs, err := h.salesService.ListTransactions(ctx.Request.Context(), sales.ListParams{
		Month:   req.Month,
		Search:  req.Search,
		Page:    req.Page,
		PerPage: req.PerPage,
	})
	if err != nil {
		h.fail(ctx, "failed to list transactions", err)
		return
	}
	ctx.JSON(http.StatusOK, txs)
}

// handleStatistics handles GET /statistics.
func (h *transactionsHandler) handleStatistics(ctx *gin.Context) {
	month, ok := h.bindMonth(ctx)
	if !ok {
		return
	}
	stats, err := h.salesService.Statistics(ctx.Request.Context(), month)
	if err != nil {
		h.fail(ctx, "failed to compute statistics", err)
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

// handleBarChart handles GET /barchart.
func (h *transactionsHandler) handleBarChart(ctx *gin.Context) {
	month, ok := h.bindMonth(ctx)
	if !ok {
		return
	}
	buckets, err := h.salesService.PriceHistogram(ctx.Request.Context(), month)
	if err != nil {
		h.fail(ctx, "failed to build bar chart", err)
		return
	}
	ctx.JSON(http.StatusOK, buckets)
}

// handlePieChart handles GET /piechart.
func (h *transactionsHandler) handlePieChart(ctx *gin.Context) {
	month, ok := h.bindMonth(ctx)
	if !ok {
		return
	}
	cats, err := h.salesService.CategoryBreakdown(ctx.Request.Context(), month)
	if err != nil {
		h.fail(ctx, "failed to build pie chart", err)
		return
	}
	ctx.JSON(http.StatusOK, cats)
}

func (h *transactionsHandler) bindMonth(ctx *gin.Context) (string, bool) {
	var req monthRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		h.fail(ctx, "invalid month query", fmt.Errorf("%w: %v", sales.ErrValidation, err))
		return "", false
	}
	return req.Month, true
}

// fail logs err and answers with the generic failure status; error kinds are not
// distinguished on the wire.
func (h *transactionsHandler) fail(ctx *gin.Context, msg string, err error) {
	fields := []zap.Field{
		zap.String("path", ctx.Request.URL.Path),
		zap.String("query", ctx.Request.URL.RawQuery),
		zap.Error(err),
	}
	if errors.Is(err, sales.ErrValidation) {
		h.logger.Warn(msg, fields...)
	} else {
		h.logger.Error(msg, fields...)
	}
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
