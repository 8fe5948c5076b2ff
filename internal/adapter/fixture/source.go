package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"TickerSync/internal/adapter"
	"TickerSync/internal/config"
	"TickerSync/internal/interfaces"
	"TickerSync/internal/model"

	"github.com/sirupsen/logrus"
)

func init() {
	adapter.Register(adapter.KindFixture, NewSource)
}

// Source 开发模式数据源：从本地 JSON 文件读取申报记录
type Source struct {
	name   string
	path   string
	logger *logrus.Logger
}

// NewSource 创建 fixture 数据源
func NewSource(name string, cfg *config.SourceConfig, logger *logrus.Logger) (interfaces.FilingSource, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("数据源%s未配置fixture路径", name)
	}
	return &Source{name: name, path: cfg.Path, logger: logger}, nil
}

func (s *Source) Name() string {
	return s.name
}

// ListNewFilings 读取 fixture 文件，返回 filed_date >= since 的记录（保持文件顺序）
func (s *Source) ListNewFilings(ctx context.Context, since time.Time) ([]model.RawFiling, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("读取fixture文件失败: %w", err)
	}
	var rows []model.RawFiling
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("解析fixture文件失败: %w", err)
	}

	cutoff := model.DateOnly(since, nil)
	out := make([]model.RawFiling, 0, len(rows))
	for _, row := range rows {
		filed, err := time.Parse(model.DateLayout, row.FiledDate)
		if err != nil {
			return nil, fmt.Errorf("申报%s的filed_date格式错误: %w", row.FilingID, err)
		}
		if !filed.Before(cutoff) {
			out = append(out, row)
		}
	}
	s.logger.WithFields(logrus.Fields{
		"source": s.name,
		"since":  cutoff.Format(model.DateLayout),
		"count":  len(out),
	}).Info("已加载fixture申报")
	return out, nil
}
