package adapter

import (
	"fmt"
	"sort"

	"TickerSync/internal/config"
	"TickerSync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// SourceRegistry 按配置初始化的申报数据源实例
type SourceRegistry struct {
	logger  *logrus.Logger
	sources map[string]interfaces.FilingSource
}

// NewSourceRegistry 遍历 cfg.Sources，按 kind 调用已注册的工厂函数创建数据源。
// 未注册的类型或创建失败的数据源记录日志后跳过
func NewSourceRegistry(cfg *config.Config, logger *logrus.Logger) *SourceRegistry {
	r := &SourceRegistry{
		logger:  logger,
		sources: make(map[string]interfaces.FilingSource),
	}
	logger.WithField("kinds", ListFactories()).Debug("已注册的数据源类型")

	for name, srcCfg := range cfg.Sources {
		srcCfg := srcCfg
		factory, ok := GetFactory(srcCfg.Kind)
		if !ok {
			logger.WithFields(logrus.Fields{"source": name, "kind": srcCfg.Kind}).Error("未找到数据源类型对应的工厂函数")
			continue
		}
		src, err := factory(name, &srcCfg, logger)
		if err != nil {
			logger.WithError(err).WithField("source", name).Error("数据源初始化失败")
			continue
		}
		r.sources[name] = src
		logger.WithFields(logrus.Fields{"source": name, "kind": srcCfg.Kind}).Info("数据源初始化成功")
	}
	return r
}

// NewStaticRegistry 直接使用给定的数据源实例（测试与嵌入使用）
func NewStaticRegistry(logger *logrus.Logger, sources ...interfaces.FilingSource) *SourceRegistry {
	r := &SourceRegistry{logger: logger, sources: make(map[string]interfaces.FilingSource)}
	for _, s := range sources {
		r.sources[s.Name()] = s
	}
	return r
}

// Names 已初始化的数据源名称（排序后返回，保证遍历顺序稳定）
func (r *SourceRegistry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for n := range r.sources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get 获取数据源实例
func (r *SourceRegistry) Get(name string) (interfaces.FilingSource, error) {
	src, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("数据源%s未初始化（已初始化：%v）", name, r.Names())
	}
	return src, nil
}

// Select 按名称挑选数据源；names 为空时返回全部。未初始化的名称返回错误
func (r *SourceRegistry) Select(names []string) ([]interfaces.FilingSource, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	out := make([]interfaces.FilingSource, 0, len(names))
	for _, n := range names {
		src, err := r.Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}
