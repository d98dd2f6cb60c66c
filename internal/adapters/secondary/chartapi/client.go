package chartapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/lifecode-app/lifecode-server/internal/domain"
)

const (
	endpointChart        = "charts/calculate"
	endpointLunarToSolar = "calendar/lunar-to-solar"
)

// placeholder-значения для lunar->solar конвертации: пол и слот
// на результат не влияют
const (
	conversionGender = "male"
	conversionSlot   = 0
)

// truncateString обрезает строку до указанной длины
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Client клиент charting-библиотеки (внешний HTTP-сервис)
type Client struct {
	cfg        *Config
	HTTPClient *http.Client
	Log        *slog.Logger
}

func NewClient(cfg *Config, log *slog.Logger) *Client {
	transport := &http.Transport{}

	if cfg.ShouldSkipSSL() {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &Client{
		cfg: cfg,
		HTTPClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		Log: log,
	}
}

// buildURL собирает полный URL из BaseURL, ApiVersion и endpoint
func (c *Client) buildURL(endpoint string) string {
	baseURL := strings.TrimSuffix(c.cfg.BaseURL, "/")
	return baseURL + "/" + path.Join(c.cfg.ApiVersion, endpoint)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.ApiKey)
	}
}

// post выполняет POST и возвращает тело при статусе 200
func (c *Client) post(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.buildURL(endpoint)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(httpReq)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.Log.Debug("chart API returned non-200 status",
			"endpoint", endpoint,
			"status_code", resp.StatusCode,
			"body_preview", truncateString(string(body), 200),
		)
		return nil, fmt.Errorf("chart API error [status=%d]: %s", resp.StatusCode, truncateString(string(body), 500))
	}

	return body, nil
}

// CalculateChart рассчитывает карту по данным рождения
func (c *Client) CalculateChart(ctx context.Context, record domain.BirthRecord) (domain.Chart, error) {
	date := record.LunarDate
	if record.Calendar == domain.CalendarSolar {
		t := record.BirthTime
		date = fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
	}

	req := ChartRequest{
		Gender:    string(record.Gender),
		Calendar:  string(record.Calendar),
		Date:      date,
		LeapMonth: record.LeapMonth,
		SlotIndex: record.SlotIndex,
	}

	body, err := c.post(ctx, endpointChart, req)
	if err != nil {
		return nil, err
	}

	var chartResp ChartResponse
	if err := json.Unmarshal(body, &chartResp); err != nil {
		c.Log.Debug("failed to unmarshal chart API response",
			"error", err,
			"body_preview", truncateString(string(body), 200),
		)
		return nil, fmt.Errorf("chart API unmarshal failed: %w", err)
	}

	if len(chartResp.Chart) == 0 {
		// некоторые версии API отдают карту как корневой объект
		return domain.Chart(body), nil
	}

	return domain.Chart(chartResp.Chart), nil
}

// LunarToSolar конвертирует лунную дату в солнечную
func (c *Client) LunarToSolar(ctx context.Context, lunarDate string, leapMonth bool) (*domain.SolarDate, error) {
	req := LunarToSolarRequest{
		LunarDate: lunarDate,
		LeapMonth: leapMonth,
		Gender:    conversionGender,
		SlotIndex: conversionSlot,
	}

	body, err := c.post(ctx, endpointLunarToSolar, req)
	if err != nil {
		return nil, err
	}

	var resp LunarToSolarResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("lunar-to-solar unmarshal failed: %w", err)
	}

	if resp.Year == 0 || resp.Month == 0 || resp.Day == 0 {
		return nil, fmt.Errorf("lunar-to-solar returned empty date for %q", lunarDate)
	}

	return &domain.SolarDate{Year: resp.Year, Month: resp.Month, Day: resp.Day}, nil
}
