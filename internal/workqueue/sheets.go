package workqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"listingcast/internal/services"
)

const (
	// DefaultSheetsAPIBase is the Sheets v4 spreadsheets endpoint.
	DefaultSheetsAPIBase = "https://sheets.googleapis.com/v4/spreadsheets/"
	minAPIKeyLength      = 20
)

type valueRange struct {
	Range          string     `json:"range,omitempty"`
	MajorDimension string     `json:"majorDimension,omitempty"`
	Values         [][]string `json:"values"`
}

// sheetsClient is the shared Sheets v4 values transport for the keyed and OAuth strategies.
type sheetsClient struct {
	client   *http.Client
	base     string
	sheetID  string
	valRange string
	apiKey   string
	token    string
}

func (s *sheetsClient) valuesURL(a1Range string, query url.Values) string {
	return strings.TrimRight(s.base, "/") + "/" + url.PathEscape(s.sheetID) +
		"/values/" + url.PathEscape(a1Range) + "?" + query.Encode()
}

func (s *sheetsClient) do(req *http.Request) ([]byte, error) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExportBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, fmt.Errorf("sheets api status %d: %s", resp.StatusCode, strings.TrimSpace(snippet))
	}
	return body, nil
}

func (s *sheetsClient) fetch(ctx context.Context) (Table, error) {
	query := url.Values{}
	query.Set("majorDimension", "ROWS")
	if s.apiKey != "" {
		query.Set("key", s.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.valuesURL(s.valRange, query), nil)
	if err != nil {
		return Table{}, err
	}
	body, err := s.do(req)
	if err != nil {
		return Table{}, err
	}
	var payload valueRange
	if err := json.Unmarshal(body, &payload); err != nil {
		return Table{}, fmt.Errorf("decode values: %w", err)
	}
	if len(payload.Values) == 0 {
		return Table{}, nil
	}
	return Table{Header: payload.Values[0], Rows: payload.Values[1:]}, nil
}

func (s *sheetsClient) write(ctx context.Context, cell string, value string) error {
	body, err := json.Marshal(valueRange{Range: cell, MajorDimension: "ROWS", Values: [][]string{{value}}})
	if err != nil {
		return err
	}
	query := url.Values{}
	query.Set("valueInputOption", "RAW")
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.valuesURL(cell, query), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = s.do(req)
	return err
}

// SheetsAPIKeyConnector reads a sheet through the Sheets v4 API with an API key.
// Keys are read-only credentials, so the connection cannot write status back.
type SheetsAPIKeyConnector struct {
	Client  *http.Client
	APIKey  string
	Range   string
	BaseURL string
}

// Name implements Connector.
func (c *SheetsAPIKeyConnector) Name() string { return StrategyAPIKey }

// Connect validates the key and performs one read.
func (c *SheetsAPIKeyConnector) Connect(ctx context.Context, ref string) (Connection, error) {
	key := strings.TrimSpace(c.APIKey)
	if len(key) <= minAPIKeyLength {
		return nil, fmt.Errorf("api_key: %w: key missing or too short", ErrNotConfigured)
	}
	id, err := SheetID(ref)
	if err != nil {
		return nil, fmt.Errorf("api_key: %w", err)
	}
	conn := &apiKeyConnection{sheets: c.client(id, key)}
	if _, err := conn.Fetch(ctx); err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *SheetsAPIKeyConnector) client(id, key string) *sheetsClient {
	return &sheetsClient{
		client:   httpClientOrDefault(c.Client),
		base:     baseOrDefault(c.BaseURL, DefaultSheetsAPIBase),
		sheetID:  id,
		valRange: baseOrDefault(c.Range, "A:Z"),
		apiKey:   key,
	}
}

type apiKeyConnection struct {
	sheets *sheetsClient
}

func (c *apiKeyConnection) Strategy() string { return StrategyAPIKey }

func (c *apiKeyConnection) Fetch(ctx context.Context) (Table, error) {
	table, err := c.sheets.fetch(ctx)
	if err != nil {
		return Table{}, fmt.Errorf("api_key: %w", err)
	}
	return table, nil
}

// SheetsOAuthConnector uses a stored OAuth access token. It can read and write.
type SheetsOAuthConnector struct {
	Client    *http.Client
	TokenFile string
	Range     string
	BaseURL   string
}

// Name implements Connector.
func (c *SheetsOAuthConnector) Name() string { return StrategyOAuth }

// Connect loads the token file and performs one read.
func (c *SheetsOAuthConnector) Connect(ctx context.Context, ref string) (Connection, error) {
	if strings.TrimSpace(c.TokenFile) == "" {
		return nil, fmt.Errorf("oauth: %w: no token file", ErrNotConfigured)
	}
	token, err := services.LoadAccessToken(c.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth: %w", err)
	}
	id, err := SheetID(ref)
	if err != nil {
		return nil, fmt.Errorf("oauth: %w", err)
	}
	conn := &oauthConnection{sheets: &sheetsClient{
		client:   httpClientOrDefault(c.Client),
		base:     baseOrDefault(c.BaseURL, DefaultSheetsAPIBase),
		sheetID:  id,
		valRange: baseOrDefault(c.Range, "A:Z"),
		token:    token,
	}}
	if _, err := conn.Fetch(ctx); err != nil {
		return nil, err
	}
	return conn, nil
}

type oauthConnection struct {
	sheets *sheetsClient
}

func (c *oauthConnection) Strategy() string { return StrategyOAuth }

func (c *oauthConnection) Fetch(ctx context.Context) (Table, error) {
	table, err := c.sheets.fetch(ctx)
	if err != nil {
		return Table{}, fmt.Errorf("oauth: %w", err)
	}
	return table, nil
}

func (c *oauthConnection) WriteCell(ctx context.Context, cell Cell, value string) error {
	if err := c.sheets.write(ctx, a1(cell.Row, cell.Column), value); err != nil {
		return fmt.Errorf("oauth: write %s: %w", a1(cell.Row, cell.Column), err)
	}
	return nil
}

func httpClientOrDefault(client *http.Client) *http.Client {
	if client == nil {
		return http.DefaultClient
	}
	return client
}

func baseOrDefault(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
