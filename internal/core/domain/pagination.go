package domain

import (
	"encoding/json"
	"strconv"
)

// Pagination - курсор страницы списка
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// EmptyPagination - одна пустая страница
func EmptyPagination(limit int) Pagination {
	return Pagination{Page: 1, Limit: limit, Total: 0, TotalPages: 1}
}

// NewPagination строит курсор по ответу сервера.
// totalPages вычисляется, если сервер его не прислал.
func NewPagination(page, limit, total, totalPages int) Pagination {
	if limit < 1 {
		limit = 1
	}
	if totalPages < 1 {
		totalPages = (total + limit - 1) / limit
	}
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

func (p Pagination) HasPrevious() bool { return p.Page > 1 }
func (p Pagination) HasNext() bool     { return p.Page < p.TotalPages }

// Contains - допустим ли переход на страницу
func (p Pagination) Contains(page int) bool {
	return page >= 1 && page <= p.TotalPages
}

// PageItem - элемент ряда номеров страниц: номер или многоточие
type PageItem struct {
	Page     int
	Ellipsis bool
}

const Ellipsis = "…"

func (i PageItem) String() string {
	if i.Ellipsis {
		return Ellipsis
	}
	return strconv.Itoa(i.Page)
}

func (i PageItem) MarshalJSON() ([]byte, error) {
	if i.Ellipsis {
		return json.Marshal(Ellipsis)
	}
	return json.Marshal(i.Page)
}

// maxPlainPages - до этого числа страниц показываем все номера
const maxPlainPages = 7

// PageItems строит ряд номеров страниц с многоточиями.
// Начало: 1-5 … N; конец: 1 … N-4..N; середина: 1 … c-1 c c+1 … N.
func PageItems(current, totalPages int) []PageItem {
	if totalPages < 1 {
		return []PageItem{{Page: 1}}
	}
	if current < 1 {
		current = 1
	}
	if current > totalPages {
		current = totalPages
	}

	pages := func(from, to int) []PageItem {
		out := make([]PageItem, 0, to-from+1)
		for p := from; p <= to; p++ {
			out = append(out, PageItem{Page: p})
		}
		return out
	}

	if totalPages <= maxPlainPages {
		return pages(1, totalPages)
	}

	gap := PageItem{Ellipsis: true}
	switch {
	case current <= 4:
		items := pages(1, 5)
		return append(items, gap, PageItem{Page: totalPages})
	case current >= totalPages-3:
		items := []PageItem{{Page: 1}, gap}
		return append(items, pages(totalPages-4, totalPages)...)
	default:
		items := []PageItem{{Page: 1}, gap}
		items = append(items, pages(current-1, current+1)...)
		return append(items, gap, PageItem{Page: totalPages})
	}
}
