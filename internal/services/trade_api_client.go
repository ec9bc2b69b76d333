package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"tradeAdmin/internal/models"
)

const tradeSchema = `{
	"type": "object",
	"required": ["id", "name"],
	"properties": {
		"id":          {"type": ["string", "integer"]},
		"name":        {"type": "string"},
		"description": {"type": ["string", "null"]},
		"image":       {"type": ["string", "null"]},
		"location":    {"type": ["string", "null"]},
		"price":       {"type": ["number", "string", "null"]},
		"duration":    {"type": ["string", "null"]},
		"trade_type":  {"type": ["string", "null"]},
		"user_id":     {"type": ["string", "integer", "null"]}
	}
}`

const maxErrorBody = 4 << 10

const MsgCredentialsRefused = "Trade service rejected the console credentials, contact the operator"

type TradeAPIConfig struct {
	BaseURL string
	// Token is sent as a bearer service token on every request.
	Token  string
	Client *http.Client
	Logger *slog.Logger
}

// TradeAPIClient talks to the remote trade service that owns trade records.
type TradeAPIClient struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	logger     *slog.Logger

	tradeSchema *jsonschema.Schema
	listSchema  *jsonschema.Schema
}

func NewTradeAPIClient(cfg TradeAPIConfig) (*TradeAPIClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("trade api: base_url is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	one, err := jsonschema.CompileString("trade.json", tradeSchema)
	if err != nil {
		return nil, fmt.Errorf("compile trade schema: %w", err)
	}
	list, err := jsonschema.CompileString("trades.json", `{"type": "array", "items": `+tradeSchema+`}`)
	if err != nil {
		return nil, fmt.Errorf("compile trade list schema: %w", err)
	}

	logger.Info("trade api client initialized", "baseURL", u.Redacted(), "token_set", cfg.Token != "")
	return &TradeAPIClient{
		baseURL:     u,
		token:       cfg.Token,
		httpClient:  client,
		logger:      logger,
		tradeSchema: one,
		listSchema:  list,
	}, nil
}

func (c *TradeAPIClient) ListTrades(ctx context.Context) ([]models.Trade, error) {
	var trades []models.Trade
	if err := c.do(ctx, http.MethodGet, c.endpoint("trades"), nil, c.listSchema, &trades); err != nil {
		return nil, err
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	return trades, nil
}

func (c *TradeAPIClient) CreateTrade(ctx context.Context, payload models.TradePayload) (models.Trade, error) {
	var out models.Trade
	if err := c.do(ctx, http.MethodPost, c.endpoint("trades"), payload, c.tradeSchema, &out); err != nil {
		return models.Trade{}, err
	}
	return out, nil
}

func (c *TradeAPIClient) UpdateTrade(ctx context.Context, id models.ID, patch models.TradePatch) (models.Trade, error) {
	if err := id.Validate(); err != nil {
		return models.Trade{}, err
	}
	var out models.Trade
	if err := c.do(ctx, http.MethodPut, c.endpoint("trades", url.PathEscape(id.String())), patch, c.tradeSchema, &out); err != nil {
		return models.Trade{}, err
	}
	return out, nil
}

func (c *TradeAPIClient) DeleteTrade(ctx context.Context, id models.ID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, c.endpoint("trades", url.PathEscape(id.String())), nil, nil, nil)
}

// endpoint joins already escaped path segments onto the base URL.
func (c *TradeAPIClient) endpoint(segments ...string) *url.URL {
	return c.baseURL.JoinPath(segments...)
}

func (c *TradeAPIClient) do(ctx context.Context, method string, endpoint *url.URL, in any, schema *jsonschema.Schema, out any) error {
	logger := c.logger.With("method", method, "path", endpoint.EscapedPath())

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	requestID := RequestIDFrom(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.Warn("trade api rejected request", "status", resp.Status, "request_id", requestID)
		return newTradeAPIError(resp, b)
	}
	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", models.ErrNetwork, err)
	}
	if schema != nil {
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return &TradeAPIError{StatusCode: resp.StatusCode, Status: resp.Status, Message: "malformed response from trade service", Body: trim(string(raw), maxErrorBody)}
		}
		if err := schema.Validate(doc); err != nil {
			logger.Error("trade api response failed schema validation", "err", err)
			return &TradeAPIError{StatusCode: resp.StatusCode, Status: resp.Status, Message: "malformed response from trade service", Body: trim(string(raw), maxErrorBody)}
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, endpoint.EscapedPath(), err)
	}
	return nil
}

// TradeAPIError is a non-2xx answer from the trade service.
type TradeAPIError struct {
	StatusCode int
	Status     string
	Message    string
	Body       string
}

func (e *TradeAPIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message == "" {
		return fmt.Sprintf("trade api error: %s", e.Status)
	}
	return fmt.Sprintf("trade api error: %s: %s", e.Status, e.Message)
}

// CredentialsRefused reports whether the service rejected the console's
// service token rather than the request itself.
func (e *TradeAPIError) CredentialsRefused() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// UserMessage is the text shown to the admin for this rejection.
func (e *TradeAPIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Status
}

func newTradeAPIError(resp *http.Response, body []byte) error {
	msg := serverMessage(body)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &TradeAPIError{StatusCode: resp.StatusCode, Status: resp.Status, Message: MsgCredentialsRefused, Body: trim(string(body), maxErrorBody)}
	case http.StatusNotFound:
		return fmt.Errorf("%w: trade not found", models.ErrNoRecord)
	}
	return &TradeAPIError{StatusCode: resp.StatusCode, Status: resp.Status, Message: msg, Body: string(body)}
}

func serverMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(trim(string(body), 200))
}

func trim(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type requestIDKey struct{}

// WithRequestID attaches the inbound request id so outbound calls reuse it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
