package api

import (
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"main/internal/feed"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/order"
	"main/pkg/exception"
)

// Register mounts the websocket endpoint and the order/signal HTTP surface.
func Register(r *gin.Engine, engine *order.Engine, ws gin.HandlerFunc) {
	h := &handlers{engine: engine}

	r.GET("/ws", ws)

	api := r.Group("/api")
	api.GET("/health", h.health)
	api.GET("/current-price", h.currentPrice)

	ex := api.Group("/exchange")
	ex.GET("/balance", h.balance)
	ex.GET("/orders", h.openOrders)
	ex.GET("/trades", h.trades)
	ex.POST("/order/market", h.createMarketOrder)
	ex.POST("/order/limit", h.createLimitOrder)
	ex.GET("/order/:id", h.orderStatus)
	ex.DELETE("/order/:id", h.cancelOrder)

	api.POST("/signal/execute", h.executeSignal)
}

type handlers struct {
	engine *order.Engine
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().Format(time.RFC3339)})
}

// currentPrice serves the legacy dashboard ticker from the simulated price
// table; live prices travel over the websocket feed, not here.
func (h *handlers) currentPrice(c *gin.Context) {
	symbol := model.Market(c.DefaultQuery("symbol", "BTC/USDT"))
	price := feed.BasePrice(symbol).Mul(decimal.NewFromFloat(1 + (rand.Float64()*2-1)*0.005))
	change := rand.Float64()*2 - 1
	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"price":     price.StringFixed(2),
		"change":    strconv.FormatFloat(change, 'f', 2, 64) + "%",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *handlers) balance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"balance": gin.H{
			"USDT": 10000.00,
			"BTC":  0.5,
			"ETH":  5.0,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type marketOrderRequest struct {
	Symbol model.Market    `json:"symbol" binding:"required"`
	Side   string          `json:"side" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func (h *handlers) createMarketOrder(c *gin.Context) {
	var req marketOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	side, err := enum.ParseOrderSide(req.Side)
	if err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.engine.CreateOrder(c.Request.Context(), req.Symbol, enum.OrderTypeMarket, side, req.Amount, decimal.Zero)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "order": o})
}

type limitOrderRequest struct {
	Symbol model.Market    `json:"symbol" binding:"required"`
	Side   string          `json:"side" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Price  decimal.Decimal `json:"price" binding:"required"`
}

func (h *handlers) createLimitOrder(c *gin.Context) {
	var req limitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	side, err := enum.ParseOrderSide(req.Side)
	if err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.engine.CreateOrder(c.Request.Context(), req.Symbol, enum.OrderTypeLimit, side, req.Amount, req.Price)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "order": o})
}

func (h *handlers) openOrders(c *gin.Context) {
	symbol := model.Market(c.Query("symbol"))
	orders, err := h.engine.OpenOrders(c.Request.Context(), symbol)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "orders": orders})
}

func (h *handlers) trades(c *gin.Context) {
	symbol := model.Market(c.Query("symbol"))
	trades, err := h.engine.Trades(c.Request.Context(), symbol)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "trades": trades})
}

func (h *handlers) orderStatus(c *gin.Context) {
	symbol := model.Market(c.Query("symbol"))
	o, err := h.engine.OrderStatus(c.Request.Context(), c.Param("id"), symbol)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "order": o})
}

func (h *handlers) cancelOrder(c *gin.Context) {
	symbol := model.Market(c.Query("symbol"))
	o, err := h.engine.CancelOrder(c.Request.Context(), c.Param("id"), symbol)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "order": o})
}

type signalRequest struct {
	Symbol        model.Market    `json:"symbol" binding:"required"`
	Side          string          `json:"side" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	OrderType     string          `json:"orderType" binding:"required"`
	Price         decimal.Decimal `json:"price"`
	StopLossPct   float64         `json:"stopLossPct"`
	TakeProfitPct float64         `json:"takeProfitPct"`
}

func (h *handlers) executeSignal(c *gin.Context) {
	var req signalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	side, err := enum.ParseOrderSide(req.Side)
	if err != nil {
		badRequest(c, err)
		return
	}
	typ, err := enum.ParseOrderType(req.OrderType)
	if err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.engine.ExecuteSignal(c.Request.Context(), order.Signal{
		Symbol:        req.Symbol,
		Side:          side,
		Type:          typ,
		Amount:        req.Amount,
		Price:         req.Price,
		StopLossPct:   req.StopLossPct,
		TakeProfitPct: req.TakeProfitPct,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "result": res})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
}

func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, exception.ErrOrderInvalidParams):
		status = http.StatusBadRequest
	case errors.Is(err, exception.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, exception.ErrOrderNotOpen):
		status = http.StatusConflict
	case errors.Is(err, exception.ErrOrderTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, exception.ErrOrderRejected):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"status": "error", "message": err.Error()})
}
