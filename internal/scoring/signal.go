package scoring

import (
	"fmt"
	"strings"
	"time"

	"TickerSync/internal/model"
)

// Tag 打分贡献项
type Tag string

const (
	TagSizeLarge Tag = "size_large"
	TagSizeMed   Tag = "size_med"
	TagSizeSmall Tag = "size_small"
	TagRecent    Tag = "recent"
	TagRecent90  Tag = "recent90"
	TagOptions   Tag = "options"
	TagInfluence Tag = "influence"
)

// 各贡献项权重（0-1 区间，合计封顶 1.0 后乘以 MaxScore）
const (
	weightSizeLarge = 0.35
	weightSizeMed   = 0.25
	weightSizeSmall = 0.10
	weightRecent    = 0.25
	weightRecent90  = 0.15
	weightOptions   = 0.15
	weightInfluence = 0.05

	recentDays   = 30
	recent90Days = 90

	// MaxScore 单笔信号分上限
	MaxScore = 5.0
)

// Factor 单个贡献项及其权重
type Factor struct {
	Tag    Tag     `json:"tag"`
	Weight float64 `json:"weight"`
}

// Result 单笔交易的打分结果
type Result struct {
	Score   float64
	Raw     float64 // 封顶后的 0-1 分
	Factors []Factor
}

// Tags 按贡献顺序返回标签
func (r Result) Tags() []Tag {
	tags := make([]Tag, 0, len(r.Factors))
	for _, f := range r.Factors {
		tags = append(tags, f.Tag)
	}
	return tags
}

// TagString 逗号拼接的标签串，落库用
func (r Result) TagString() string {
	parts := make([]string, 0, len(r.Factors))
	for _, f := range r.Factors {
		parts = append(parts, string(f.Tag))
	}
	return strings.Join(parts, ",")
}

// Reason 可读的打分说明
func (r Result) Reason() string {
	if len(r.Factors) == 0 {
		return fmt.Sprintf("no contributing factors -> %.2f", r.Raw)
	}
	parts := make([]string, 0, len(r.Factors))
	for _, f := range r.Factors {
		parts = append(parts, fmt.Sprintf("%s+%.2f", f.Tag, f.Weight))
	}
	return fmt.Sprintf("%s -> %.2f", strings.Join(parts, " "), r.Raw)
}

// Has 是否包含某标签
func (r Result) Has(tag Tag) bool {
	for _, f := range r.Factors {
		if f.Tag == tag {
			return true
		}
	}
	return false
}

// ComputeTradeSignal 计算单笔交易信号分（0-5）。member 可为 nil；today 为日历日期
func ComputeTradeSignal(trade *model.Trade, member *model.Member, today time.Time) Result {
	var factors []Factor
	add := func(tag Tag, w float64) {
		factors = append(factors, Factor{Tag: tag, Weight: w})
	}

	if band := trade.AmountBand; band != "" {
		switch {
		case strings.Contains(band, "$100k") || strings.Contains(band, "$250k"):
			add(TagSizeLarge, weightSizeLarge)
		case strings.Contains(band, "$50k"):
			add(TagSizeMed, weightSizeMed)
		default:
			add(TagSizeSmall, weightSizeSmall)
		}
	}

	days := model.DaysBetween(trade.TxnDate, today)
	switch {
	case days <= recentDays:
		add(TagRecent, weightRecent)
	case days <= recent90Days:
		add(TagRecent90, weightRecent90)
	}

	if strings.EqualFold(trade.SecurityType, "option") {
		add(TagOptions, weightOptions)
	}

	if member.HasBinaryParty() {
		add(TagInfluence, weightInfluence)
	}

	raw := 0.0
	for _, f := range factors {
		raw += f.Weight
	}
	if raw > 1.0 {
		raw = 1.0
	}
	return Result{Score: raw * MaxScore, Raw: raw, Factors: factors}
}
