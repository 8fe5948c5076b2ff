package issuer

import (
	"TickerSync/internal/model"
	"TickerSync/internal/utils/textnorm"
)

const (
	// ExactConfidence 精确匹配的置信度，保留到 1.0 的余量
	ExactConfidence = 0.99
	// DefaultFuzzyThreshold 模糊匹配接受阈值（0-100）
	DefaultFuzzyThreshold = 85.0
)

// Scorer 相似度函数，返回 0-100
type Scorer func(query, candidate string) float64

// Resolution 发行人解析结果，Ticker 为空表示未解析
type Resolution struct {
	Ticker     string
	Confidence float64
	Method     model.MapMethod
}

// Found 是否解析到代码
func (r Resolution) Found() bool {
	return r.Ticker != ""
}

// Resolver 发行人名称 -> 证券代码：先精确匹配，再按需模糊匹配
type Resolver struct {
	ref       *Reference
	scorer    Scorer
	threshold float64
}

// Option Resolver 可选项
type Option func(*Resolver)

// WithScorer 替换相似度函数
func WithScorer(s Scorer) Option {
	return func(r *Resolver) { r.scorer = s }
}

// WithThreshold 设置模糊匹配阈值
func WithThreshold(t float64) Option {
	return func(r *Resolver) {
		if t > 0 {
			r.threshold = t
		}
	}
}

// NewResolver 创建 Resolver
func NewResolver(ref *Reference, opts ...Option) *Resolver {
	if ref == nil {
		ref = NewReference(nil)
	}
	r := &Resolver{
		ref:       ref,
		scorer:    textnorm.TokenSetRatio,
		threshold: DefaultFuzzyThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve 解析发行人名称。未命中是正常结果（Method=none），不是错误
func (r *Resolver) Resolve(name string, allowFuzzy bool) Resolution {
	norm := textnorm.IssuerKey(name)
	if norm == "" {
		return Resolution{Method: model.MapMethodNone}
	}

	if ref, ok := r.ref.Lookup(norm); ok {
		return Resolution{Ticker: ref.Ticker, Confidence: ExactConfidence, Method: model.MapMethodExact}
	}

	if allowFuzzy {
		// 并列最高分保留先出现的候选
		bestScore := 0.0
		bestTicker := ""
		for _, e := range r.ref.Entries() {
			sc := r.scorer(norm, e.Name)
			if sc > bestScore {
				bestScore, bestTicker = sc, e.Ticker
			}
		}
		if bestTicker != "" && bestScore >= r.threshold {
			return Resolution{Ticker: bestTicker, Confidence: bestScore / 100.0, Method: model.MapMethodFuzzy}
		}
	}

	return Resolution{Method: model.MapMethodNone}
}
