package domain

import (
	"net/url"
	"strconv"
)

// Values - полный набор query-параметров, включая page и limit
func (q PropertyQuery) Values() url.Values {
	v := url.Values{}
	for k, val := range q.Params {
		v.Set(k, val)
	}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	return v
}

// CacheKey - детерминированный ключ запроса (url.Values.Encode сортирует ключи)
func (q PropertyQuery) CacheKey() string {
	return q.Values().Encode()
}

// FilterKey - ключ набора критериев без учета страницы
func (q PropertyQuery) FilterKey() string {
	v := url.Values{}
	for k, val := range q.Params {
		v.Set(k, val)
	}
	return v.Encode()
}
