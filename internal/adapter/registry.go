package adapter

import (
	"fmt"
	"sort"

	"TickerSync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// 数据源类型
const (
	KindFixture = "fixture"
	KindHTTP    = "http"
)

// 全局工厂函数注册表（按数据源类型）
var factoryRegistry = make(map[string]interfaces.SourceFactory)

// Register 供数据源包的 init 函数调用，注册工厂函数
func Register(kind string, factory interfaces.SourceFactory) {
	if factory == nil {
		panic(fmt.Sprintf("数据源类型%s的工厂函数不能为nil", kind))
	}
	if _, exists := factoryRegistry[kind]; exists {
		logrus.Warnf("数据源类型%s已注册，将覆盖原有实现", kind)
	}
	factoryRegistry[kind] = factory
}

// GetFactory 获取指定类型的工厂函数
func GetFactory(kind string) (interfaces.SourceFactory, bool) {
	factory, ok := factoryRegistry[kind]
	return factory, ok
}

// ListFactories 列出所有已注册的数据源类型（排序后返回）
func ListFactories() []string {
	kinds := make([]string, 0, len(factoryRegistry))
	for k := range factoryRegistry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
