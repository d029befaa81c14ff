package apihttp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"tradeguard/internal/ledger"
	"tradeguard/internal/risk"
	"tradeguard/internal/store/gormstore"
	"tradeguard/internal/types"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	store     *gormstore.Store
	ledger    *ledger.Ledger
	evaluator *risk.Evaluator
}

func (h *handlers) latestSnapshot(c *gin.Context) {
	snap, err := h.ledger.Latest(c.Request.Context())
	if err != nil {
		if errors.Is(err, ledger.ErrNoSnapshot) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot recorded"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) inferredTrades(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	trades, err := h.store.RecentInferredTrades(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}

func (h *handlers) riskSummary(c *gin.Context) {
	summary, err := h.evaluator.Summarize(c.Request.Context())
	if err != nil {
		if errors.Is(err, ledger.ErrNoSnapshot) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot recorded"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handlers) riskDecisions(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))
	limit := queryInt(c, "limit", 50)
	decisions, err := h.store.RecentRiskDecisions(c.Request.Context(), symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": decisions, "count": len(decisions)})
}

type evaluateRequest struct {
	Symbol        string  `json:"symbol" binding:"required"`
	Action        string  `json:"action" binding:"required"`
	SuggestedStop float64 `json:"suggested_stop"`
	Confidence    float64 `json:"confidence"`
}

func (h *handlers) evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proposal := types.TradeProposal{
		Symbol:        strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Action:        types.Action(strings.ToUpper(strings.TrimSpace(req.Action))),
		SuggestedStop: req.SuggestedStop,
		Confidence:    req.Confidence,
	}
	decision, err := h.evaluator.EvaluateProposal(c.Request.Context(), proposal)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, decision)
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
