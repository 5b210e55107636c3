package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/example/shopcore/pkg/config"
	"github.com/example/shopcore/pkg/order"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const identityHeader = "X-User-ID"

// Gateway is the REST surface over the order core. Caller identity comes
// from the upstream auth layer via X-User-ID and is trusted as-is.
type Gateway struct {
	config  *config.Config
	logger  *zap.Logger
	router  *gin.Engine
	service *order.Service
	query   *order.Query
}

func NewGateway(cfg *config.Config, logger *zap.Logger, service *order.Service, query *order.Query) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Gateway{
		config:  cfg,
		logger:  logger,
		router:  router,
		service: service,
		query:   query,
	}
}

func (g *Gateway) SetupRoutes() {
	// Health check
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := g.router.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		orders.Use(identityMiddleware())
		{
			orders.POST("", g.createOrder)
			orders.GET("", g.listOrders)
			orders.GET("/:id", g.getOrder)
			orders.PUT("/:id/cancel", g.cancelOrder)
			orders.DELETE("/:id", g.deleteOrder)
		}
	}

	// Swagger
	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.HTTP.Host, g.config.HTTP.Port)
	g.logger.Info("Gateway starting", zap.String("address", addr))
	return g.router.Run(addr)
}

// Router exposes the engine for tests.
func (g *Gateway) Router() *gin.Engine {
	return g.router
}

type orderLineRequest struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

type createOrderRequest struct {
	Items []orderLineRequest `json:"items" binding:"required,min=1,dive"`
}

func (g *Gateway) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(order.CodeBadRequest, err.Error()))
		return
	}

	lines := make([]order.LineRequest, len(req.Items))
	for i, item := range req.Items {
		lines[i] = order.LineRequest{ProductID: item.Product, Quantity: item.Quantity}
	}

	ord, err := g.service.Create(c.Request.Context(), identity(c), lines)
	if err != nil {
		g.writeError(c, err)
		return
	}

	items, err := ord.Lines()
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"id":           ord.ID,
		"user":         ord.UserID,
		"items":        items,
		"total_amount": ord.TotalAmount,
		"status":       ord.Status,
		"created_at":   ord.CreatedAt,
		"updated_at":   ord.UpdatedAt,
	}})
}

func (g *Gateway) listOrders(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(order.CodeBadPagination, "page must be a positive integer"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(order.CodeBadPagination, "limit must be a positive integer"))
		return
	}

	result, err := g.query.List(c.Request.Context(), identity(c), page, limit)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (g *Gateway) getOrder(c *gin.Context) {
	view, err := g.query.Get(c.Request.Context(), c.Param("id"), identity(c))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (g *Gateway) cancelOrder(c *gin.Context) {
	id := c.Param("id")
	if _, err := g.service.Cancel(c.Request.Context(), id, identity(c)); err != nil {
		g.writeError(c, err)
		return
	}

	view, err := g.query.Get(c.Request.Context(), id, "")
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (g *Gateway) deleteOrder(c *gin.Context) {
	id := c.Param("id")
	if err := g.service.Remove(c.Request.Context(), id, identity(c)); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"message": fmt.Sprintf("Order with ID %s has been deleted successfully", id),
	}})
}

func (g *Gateway) writeError(c *gin.Context, err error) {
	var oe *order.Error
	if !errors.As(err, &oe) {
		g.logger.Error("Unclassified error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody("internal", "internal error"))
		return
	}

	status := http.StatusBadRequest
	switch oe.Kind {
	case order.KindNotFound:
		status = http.StatusNotFound
	case order.KindForbidden:
		status = http.StatusForbidden
	case order.KindUnavailable:
		g.logger.Error("Storage failure", zap.Error(err))
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, errorBody(oe.Code, oe.Reason))
}

func errorBody(code, message string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": message}}
}

func identity(c *gin.Context) string {
	return c.GetString("user_id")
}

// identityMiddleware pulls the authenticated caller identity set by the
// upstream auth layer. Requests without one never reach a handler.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(identityHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				errorBody("unauthenticated", "missing caller identity"))
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
