package service

import (
	"math"
	"strconv"
	"strings"

	"countdown_timer_v1/internal/repository"
)

// 分页参数
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MinPageSize     = 5
	MaxPageSize     = 50
)

// DefaultOrderBy 未指定或全部字段无效时使用
const DefaultOrderBy = "status:asc,position:asc,updatedAt:desc"

// ParseOrderSpec 解析 "field:dir,field:dir"
// 未知字段丢弃，方向非 asc 一律视为 desc，同一字段只取第一次出现
func ParseOrderSpec(raw string) []repository.SortTerm {
	terms := parseOrderTerms(raw)
	if len(terms) == 0 {
		return parseOrderTerms(DefaultOrderBy)
	}
	return terms
}

func parseOrderTerms(raw string) []repository.SortTerm {
	var terms []repository.SortTerm
	seen := make(map[repository.SortField]bool)

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, dir, _ := strings.Cut(part, ":")
		f := repository.SortField(strings.TrimSpace(field))
		if !repository.IsSortable(f) || seen[f] {
			continue
		}
		seen[f] = true

		d := repository.SortDesc
		if strings.EqualFold(strings.TrimSpace(dir), string(repository.SortAsc)) {
			d = repository.SortAsc
		}
		terms = append(terms, repository.SortTerm{Field: f, Direction: d})
	}
	return terms
}

// FormatOrderSpec 规范化后的排序串，回显给调用方
func FormatOrderSpec(terms []repository.SortTerm) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ",")
}

// ParsePage 页码：非数字取默认，小数向下取整，最小 1
func ParsePage(raw string) int {
	page := coerceInt(raw, DefaultPage)
	if page < 1 {
		return 1
	}
	return page
}

// ParsePageSize 每页条数：限制在 [MinPageSize, MaxPageSize]
func ParsePageSize(raw string) int {
	size := coerceInt(raw, DefaultPageSize)
	if size < MinPageSize {
		return MinPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// TotalPages 向上取整，空结果为 0
func TotalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

func coerceInt(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	f = math.Floor(f)
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}
