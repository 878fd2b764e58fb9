package backend_api_client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"time"
)

// maxErrorBody - сколько байт тела ошибки попадает в текст ошибки
const maxErrorBody = 512

// Client - HTTP-клиент бэкенда объектов недвижимости
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    port.MetricsPort
}

var (
	_ port.PropertyAPIPort      = (*Client)(nil)
	_ port.StatusVocabularyPort = (*Client)(nil)
)

func NewClient(baseURL string, timeout time.Duration, metrics port.MetricsPort) *Client {
	if metrics == nil {
		metrics = port.NoopMetrics{}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
	}
}

// doRequest - внутренний хелпер для выполнения запросов
func (c *Client) doRequest(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	traceID := contextkeys.TraceIDFromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// getJSON выполняет GET и возвращает тело успешного ответа
func (c *Client) getJSON(ctx context.Context, logger port.LoggerPort, endpoint, url string) ([]byte, error) {
	logger.Debug("Sending request to property backend", port.Fields{"url": url})

	start := time.Now()
	resp, err := c.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.metrics.ObserveBackendRequest(endpoint, "error", time.Since(start))
		logger.Error("Failed to perform request to property backend", err, nil)
		return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveBackendRequest(endpoint, "error", time.Since(start))
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.ObserveBackendRequest(endpoint, "error", time.Since(start))
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		err := fmt.Errorf("property backend returned non-success status code %d: %s", resp.StatusCode, string(body))
		logger.Error("Received error response from property backend", err, port.Fields{"status_code": resp.StatusCode})
		return nil, err
	}

	c.metrics.ObserveBackendRequest(endpoint, "ok", time.Since(start))
	return body, nil
}

func (c *Client) FindProperties(ctx context.Context, query domain.PropertyQuery) (*domain.PropertyPage, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PropertyBackendClient",
		"method":    "FindProperties",
		"page":      query.Page,
	})

	url := fmt.Sprintf("%s/api/properties?%s", c.baseURL, query.Values().Encode())
	body, err := c.getJSON(ctx, logger, "properties", url)
	if err != nil {
		return nil, err
	}

	var response PropertiesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		logger.Error("Failed to decode response from property backend", err, nil)
		return nil, fmt.Errorf("failed to decode properties response: %w", err)
	}

	pagination := domain.NewPagination(query.Page, query.Limit, len(response.Data), 0)
	if response.Pagination != nil {
		page, limit := response.Pagination.Page, response.Pagination.Limit
		if page < 1 {
			page = query.Page
		}
		if limit < 1 {
			limit = query.Limit
		}
		pagination = domain.NewPagination(page, limit, response.Pagination.Total, response.Pagination.TotalPages)
	}

	result := &domain.PropertyPage{
		Properties: make([]domain.Property, 0, len(response.Data)),
		Pagination: pagination,
	}
	for _, dto := range response.Data {
		result.Properties = append(result.Properties, toDomainProperty(dto))
	}

	logger.Info("Successfully received and decoded response", port.Fields{
		"objects_count": len(result.Properties),
		"total":         pagination.Total,
	})
	return result, nil
}

func (c *Client) GetDevelopmentStatuses(ctx context.Context) ([]domain.StatusItem, error) {
	return c.getStatuses(ctx, "GetDevelopmentStatuses", "development_status", "/api/development-status")
}

func (c *Client) GetSaleStatuses(ctx context.Context) ([]domain.StatusItem, error) {
	return c.getStatuses(ctx, "GetSaleStatuses", "sale_status", "/api/sale-status")
}

func (c *Client) getStatuses(ctx context.Context, method, endpoint, path string) ([]domain.StatusItem, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PropertyBackendClient",
		"method":    method,
	})

	body, err := c.getJSON(ctx, logger, endpoint, c.baseURL+path)
	if err != nil {
		return nil, err
	}

	items, err := decodeStatusItems(body)
	if err != nil {
		logger.Error("Failed to decode response from property backend", err, nil)
		return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	result := make([]domain.StatusItem, len(items))
	for i, it := range items {
		result[i] = domain.StatusItem{Name: it.Name}
	}
	return result, nil
}

func toDomainProperty(dto PropertyResponse) domain.Property {
	p := domain.Property{
		ID:                string(dto.ID),
		Name:              dto.Name,
		Area:              dto.Area,
		MinPrice:          float64(dto.MinPrice),
		MaxPrice:          float64(dto.MaxPrice),
		Currency:          dto.Currency,
		Developer:         dto.Developer,
		DevelopmentStatus: dto.DevelopmentStatus,
		SaleStatus:        dto.SaleStatus,
		UnitTypes:         dto.UnitTypes,
		MinSize:           float64(dto.MinSize),
		ImageURL:          dto.CoverImageURL,
		Coordinates:       dto.Coordinates,
		Featured:          dto.Featured,
	}
	if dto.CompletionDate != nil && !dto.CompletionDate.IsZero() {
		t := dto.CompletionDate.Time
		p.CompletionDate = &t
	}
	if dto.CreatedAt != nil {
		p.CreatedAt = dto.CreatedAt.Time
	}
	if dto.UpdatedAt != nil {
		p.UpdatedAt = dto.UpdatedAt.Time
	}
	return p
}
