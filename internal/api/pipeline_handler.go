package api

import (
	"errors"
	"net/http"
	"strconv"

	"TickerSync/internal/repository"
	"TickerSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// WatchStatusProvider 轮询状态来源
type WatchStatusProvider interface {
	Status() service.WatchStatus
}

// PipelineHandler 手动触发流水线与运行状态查询
type PipelineHandler struct {
	runner  service.Runner
	watcher WatchStatusProvider
	metrics repository.RunMetricRepository
	score   bool
	alerts  bool
	logger  *logrus.Logger
}

// NewPipelineHandler 创建 PipelineHandler；watcher 为 nil 时状态接口返回空状态
func NewPipelineHandler(db *gorm.DB, runner service.Runner, watcher WatchStatusProvider, score, alerts bool, logger *logrus.Logger) *PipelineHandler {
	return &PipelineHandler{
		runner:  runner,
		watcher: watcher,
		metrics: repository.NewRunMetricRepository(db),
		score:   score,
		alerts:  alerts,
		logger:  logger,
	}
}

// RunPipeline 同步执行一次流水线
// POST /pipeline/run?score=true&alerts=false
func (h *PipelineHandler) RunPipeline(c *gin.Context) {
	score := parseBool(c.Query("score"), h.score)
	alerts := parseBool(c.Query("alerts"), h.alerts)

	sum, err := h.runner.RunOnce(c.Request.Context(), score, alerts)
	if errors.Is(err, service.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("RunPipeline failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// ListRuns 最近的阶段指标；带 run_id 时只返回该次运行
// GET /pipeline/runs?run_id=xxx&limit=50
func (h *PipelineHandler) ListRuns(c *gin.Context) {
	var (
		rows interface{}
		err  error
	)
	if runID := c.Query("run_id"); runID != "" {
		rows, err = h.metrics.ListByRun(c.Request.Context(), runID)
	} else {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		rows, err = h.metrics.ListRecent(c.Request.Context(), limit)
	}
	if err != nil {
		h.logger.WithError(err).Error("ListRuns failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows})
}

// WatchStatus 轮询器最近一次轮询与最近一次发现变化的时间
// GET /watch/status
func (h *PipelineHandler) WatchStatus(c *gin.Context) {
	if h.watcher == nil {
		c.JSON(http.StatusOK, service.WatchStatus{})
		return
	}
	c.JSON(http.StatusOK, h.watcher.Status())
}

func parseBool(s string, def bool) bool {
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}
