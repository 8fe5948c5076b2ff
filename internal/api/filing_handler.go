package api

import (
	"errors"
	"net/http"
	"strconv"

	"TickerSync/internal/model"
	"TickerSync/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FilingHandler 申报与交易查询接口
type FilingHandler struct {
	filings repository.FilingRepository
	trades  repository.TradeRepository
	signals repository.SignalRepository
	logger  *logrus.Logger
}

// NewFilingHandler 创建 FilingHandler
func NewFilingHandler(db *gorm.DB, logger *logrus.Logger) *FilingHandler {
	return &FilingHandler{
		filings: repository.NewFilingRepository(db),
		trades:  repository.NewTradeRepository(db),
		signals: repository.NewSignalRepository(db),
		logger:  logger,
	}
}

// FilingListResult 申报分页结果
type FilingListResult struct {
	Items    []*model.Filing `json:"items"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// TradeWithSignal 交易及其信号分
type TradeWithSignal struct {
	*model.Trade
	Score *float64 `json:"score,omitempty"`
}

// ListFilings 申报列表
// GET /api/filings?source=house&status=parsed&member_id=H001&page=1&page_size=20
func (h *FilingHandler) ListFilings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	filter := repository.FilingFilter{
		Source:   c.Query("source"),
		Status:   c.Query("status"),
		MemberID: c.Query("member_id"),
	}

	items, total, err := h.filings.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListFilings failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	c.JSON(http.StatusOK, &FilingListResult{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// ListFilingTrades 某申报解析出的交易及信号分
// GET /api/filings/:filing_id/trades
func (h *FilingHandler) ListFilingTrades(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("filing_id")
	if _, err := h.filings.Get(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "filing not found"})
			return
		}
		h.logger.WithError(err).Error("GetFiling failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	trades, err := h.trades.ListByFiling(ctx, id)
	if err != nil {
		h.logger.WithError(err).Error("ListFilingTrades failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ids := make([]string, len(trades))
	for i, t := range trades {
		ids[i] = t.TradeID
	}
	scores, err := h.signals.ScoresByTradeIDs(ctx, ids)
	if err != nil {
		h.logger.WithError(err).Error("ScoresByTradeIDs failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]*TradeWithSignal, len(trades))
	for i, t := range trades {
		item := &TradeWithSignal{Trade: t}
		if sc, ok := scores[t.TradeID]; ok {
			item.Score = &sc
		}
		items[i] = item
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
