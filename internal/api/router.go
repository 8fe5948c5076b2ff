package api

import (
	"github.com/gin-gonic/gin"
)

// Handlers 全部 HTTP 处理器
type Handlers struct {
	Pipeline *PipelineHandler
	Members  *MemberHandler
	Filings  *FilingHandler
	Reports  *ReportHandler
}

// RegisterRoutes 注册路由
func RegisterRoutes(r *gin.Engine, h Handlers) {
	// 流水线触发与运行状态
	r.POST("/pipeline/run", h.Pipeline.RunPipeline)
	r.GET("/pipeline/runs", h.Pipeline.ListRuns)
	r.GET("/watch/status", h.Pipeline.WatchStatus)

	// 查询接口
	r.GET("/api/members", h.Members.ListMembers)
	r.GET("/api/members/:member_id", h.Members.GetMember)
	r.GET("/api/members/:member_id/snapshots", h.Members.ListSnapshots)
	r.GET("/api/filings", h.Filings.ListFilings)
	r.GET("/api/filings/:filing_id/trades", h.Filings.ListFilingTrades)
	r.GET("/api/report/daily", h.Reports.Daily)
	r.GET("/api/report/daily.xlsx", h.Reports.DailyXLSX)
}
