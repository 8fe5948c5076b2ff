package issuer

import (
	"encoding/json"
	"fmt"
	"os"

	"TickerSync/internal/model"
	"TickerSync/internal/utils/textnorm"
)

// Reference 只读的发行人参考表，保持加载顺序以保证模糊匹配结果可复现
type Reference struct {
	entries []model.IssuerRef
	index   map[string]int
}

// NewReference 由条目构建参考表；键为规范化+小写后的公司名，重复键保留先出现者
func NewReference(entries []model.IssuerRef) *Reference {
	r := &Reference{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		key := textnorm.IssuerKey(e.Title)
		if e.Name != "" {
			key = textnorm.IssuerKey(e.Name)
		}
		if key == "" {
			continue
		}
		if _, exists := r.index[key]; exists {
			continue
		}
		e.Name = key
		r.index[key] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r
}

// Lookup 精确查找
func (r *Reference) Lookup(key string) (model.IssuerRef, bool) {
	i, ok := r.index[key]
	if !ok {
		return model.IssuerRef{}, false
	}
	return r.entries[i], true
}

// Entries 按加载顺序返回全部条目
func (r *Reference) Entries() []model.IssuerRef {
	return r.entries
}

// Len 条目数
func (r *Reference) Len() int {
	return len(r.entries)
}

// companyTickerRow company_tickers JSON 中的一行
type companyTickerRow struct {
	Title  string `json:"title"`
	Ticker string `json:"ticker"`
	CIK    int64  `json:"cik"`
}

// Loader 参考表加载器
type Loader interface {
	Load() (*Reference, error)
}

// FileLoader 从 company_tickers JSON 文件加载参考表
type FileLoader struct {
	Path string
}

// NewFileLoader 创建文件加载器
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

func (l *FileLoader) Load() (*Reference, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("读取发行人参考表失败: %w", err)
	}
	var rows []companyTickerRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("解析发行人参考表失败: %w", err)
	}
	entries := make([]model.IssuerRef, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, model.IssuerRef{
			Title:  row.Title,
			Ticker: row.Ticker,
			CIK:    row.CIK,
		})
	}
	return NewReference(entries), nil
}

// StaticLoader 内存参考表（测试与嵌入场景）
type StaticLoader struct {
	Ref *Reference
}

func (l StaticLoader) Load() (*Reference, error) {
	if l.Ref == nil {
		return NewReference(nil), nil
	}
	return l.Ref, nil
}
