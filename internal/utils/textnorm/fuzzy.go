package textnorm

import (
	"sort"
	"strings"
)

// TokenSetRatio 顺序无关的词集合相似度（0-100）。
// 两侧按空白切词去重后取交集与差集：交集非空且任一差集为空时直接 100；
// 否则取 ratio(差集ab, 差集ba)、ratio(交集, 交集+差集ab)、ratio(交集, 交集+差集ba) 的最大值。
func TokenSetRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var inter, diffAB, diffBA []string
	for t := range tokensA {
		if _, ok := tokensB[t]; ok {
			inter = append(inter, t)
		} else {
			diffAB = append(diffAB, t)
		}
	}
	for t := range tokensB {
		if _, ok := tokensA[t]; !ok {
			diffBA = append(diffBA, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(diffAB)
	sort.Strings(diffBA)

	if len(inter) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	sect := strings.Join(inter, " ")
	ab := strings.Join(diffAB, " ")
	ba := strings.Join(diffBA, " ")

	best := Ratio(ab, ba)
	if sect == "" {
		return best
	}
	sectAB := sect + " " + ab
	sectBA := sect + " " + ba
	if r := Ratio(sect, sectAB); r > best {
		best = r
	}
	if r := Ratio(sect, sectBA); r > best {
		best = r
	}
	return best
}

// Ratio 基于插入/删除编辑距离的归一化相似度（0-100）
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	dist := total - 2*lcsLength(ra, rb)
	return 100 * (1 - float64(dist)/float64(total))
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		out[t] = struct{}{}
	}
	return out
}

// lcsLength 最长公共子序列长度
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
