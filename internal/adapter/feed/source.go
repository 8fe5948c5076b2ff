package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TickerSync/internal/adapter"
	"TickerSync/internal/config"
	"TickerSync/internal/interfaces"
	"TickerSync/internal/model"
	"TickerSync/internal/utils/httpclient"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

func init() {
	adapter.Register(adapter.KindHTTP, NewSource)
}

const defaultEndpoint = "/filings"

// Source 通过 HTTP JSON 接口拉取申报列表
type Source struct {
	name     string
	endpoint string
	client   *resty.Client
	logger   *logrus.Logger
}

// NewSource 创建 HTTP 数据源，底层传输复用 httpclient（代理、超时、gzip）
func NewSource(name string, cfg *config.SourceConfig, logger *logrus.Logger) (interfaces.FilingSource, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("数据源%s未配置base_url", name)
	}
	client := resty.NewWithClient(httpclient.NewHTTPClient(cfg, logger)).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond)
	if cfg.AuthToken != "" {
		client.SetAuthToken(cfg.AuthToken)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Source{name: name, endpoint: endpoint, client: client, logger: logger}, nil
}

func (s *Source) Name() string {
	return s.name
}

// ListNewFilings GET {base_url}{endpoint}?source=<name>&since=YYYY-MM-DD
func (s *Source) ListNewFilings(ctx context.Context, since time.Time) ([]model.RawFiling, error) {
	cutoff := model.DateOnly(since, nil).Format(model.DateLayout)
	var rows []model.RawFiling
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("source", s.name).
		SetQueryParam("since", cutoff).
		SetResult(&rows).
		Get(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("请求申报列表失败: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("申报列表接口返回错误: %s", resp.Status())
	}

	s.logger.WithFields(logrus.Fields{
		"source": s.name,
		"since":  cutoff,
		"count":  len(rows),
	}).Info("已拉取申报列表")
	return rows, nil
}
