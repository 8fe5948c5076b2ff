package interfaces

import (
	"context"
	"time"

	"TickerSync/internal/config"
	"TickerSync/internal/model"

	"github.com/sirupsen/logrus"
)

// FilingSource 申报数据源（house / senate），由外部抓取方提供原始记录
type FilingSource interface {
	Name() string                                                                  // 数据源名称
	ListNewFilings(ctx context.Context, since time.Time) ([]model.RawFiling, error) // 拉取 filed_date >= since 的申报
}

// SourceFactory 数据源工厂函数签名
// 入参：数据源名称、数据源配置、日志实例
type SourceFactory func(name string, cfg *config.SourceConfig, logger *logrus.Logger) (FilingSource, error)

// TextExtractor 申报文件 -> 纯文本；失败时 ok=false，调用方按空文本处理
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (text string, ok bool)
}
