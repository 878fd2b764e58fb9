package backend_api_client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PropertiesResponse - ответ GET /api/properties
type PropertiesResponse struct {
	Success    bool                `json:"success"`
	Data       []PropertyResponse  `json:"data"`
	Pagination *PaginationResponse `json:"pagination"`
}

type PaginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type PropertyResponse struct {
	ID                flexString `json:"id"`
	Name              string     `json:"name"`
	Area              string     `json:"area"`
	MinPrice          flexNumber `json:"min_price"`
	MaxPrice          flexNumber `json:"max_price"`
	Currency          string     `json:"price_currency"`
	Developer         string     `json:"developer"`
	DevelopmentStatus string     `json:"development_status"`
	SaleStatus        string     `json:"sale_status"`
	UnitTypes         []string   `json:"unit_types"`
	MinSize           flexNumber `json:"min_size"`
	CoverImageURL     string     `json:"cover_image_url"`
	Coordinates       string     `json:"coordinates"`
	Featured          bool       `json:"is_featured"`
	CompletionDate    *flexTime  `json:"completion_datetime"`
	CreatedAt         *flexTime  `json:"created_at"`
	UpdatedAt         *flexTime  `json:"updated_at"`
}

// StatusItemResponse - элемент справочника статусов
type StatusItemResponse struct {
	Name string `json:"name"`
}

// statusEnvelope - справочник может прийти голым массивом или в {success, data}
type statusEnvelope struct {
	Success bool                 `json:"success"`
	Data    []StatusItemResponse `json:"data"`
}

func decodeStatusItems(body []byte) ([]StatusItemResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []StatusItemResponse
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var env statusEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// flexString принимает и строку, и число
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*s = flexString(n.String())
	return nil
}

// flexNumber принимает число или числовую строку ("1250000.00"); мусор - 0
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexNumber(v)
	return nil
}

// flexTime - RFC3339 или просто дата
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	// нераспознанная дата не должна ломать весь список
	return nil
}
