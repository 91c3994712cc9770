package workqueue

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// DefaultSheetsExportBase is the public spreadsheet host.
	DefaultSheetsExportBase = "https://docs.google.com/spreadsheets/d/"
	minExportBodyBytes      = 100
	maxExportBodyBytes      = 16 << 20
)

var sheetIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`),
	regexp.MustCompile(`spreadsheets/d/([a-zA-Z0-9-_]+)`),
	regexp.MustCompile(`d/([a-zA-Z0-9-_]+)`),
}

var errNoSheetID = errors.New("no spreadsheet id in reference")

// SheetID extracts the spreadsheet identifier from a sheet URL.
func SheetID(ref string) (string, error) {
	for _, pattern := range sheetIDPatterns {
		if m := pattern.FindStringSubmatch(ref); len(m) == 2 {
			return m[1], nil
		}
	}
	return "", errNoSheetID
}

// CSVExportConnector reads a publicly shared sheet through its CSV export
// endpoints. A reference naming a local .csv file is read from disk instead.
type CSVExportConnector struct {
	Client *http.Client
	// BaseURL defaults to DefaultSheetsExportBase.
	BaseURL string
}

// Name implements Connector.
func (c *CSVExportConnector) Name() string { return StrategyPublicCSV }

// Connect finds the first export URL that returns a usable CSV body.
func (c *CSVExportConnector) Connect(ctx context.Context, ref string) (Connection, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("public_csv: %w: empty reference", ErrNotConfigured)
	}
	if strings.EqualFold(filepath.Ext(ref), ".csv") && !strings.Contains(ref, "://") {
		conn := &fileConnection{path: ref}
		if _, err := conn.Fetch(ctx); err != nil {
			return nil, err
		}
		return conn, nil
	}

	id, err := SheetID(ref)
	if err != nil {
		return nil, fmt.Errorf("public_csv: %w", err)
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultSheetsExportBase
	}
	base = strings.TrimRight(base, "/") + "/" + id + "/"
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	var errs []error
	for _, suffix := range []string{
		"export?format=csv&gid=0",
		"export?format=csv",
		"gviz/tq?tqx=out:csv&sheet=0",
	} {
		conn := &exportConnection{client: client, url: base + suffix}
		if _, err := conn.Fetch(ctx); err != nil {
			errs = append(errs, err)
			continue
		}
		return conn, nil
	}
	return nil, fmt.Errorf("public_csv: no export endpoint usable: %w", errors.Join(errs...))
}

type exportConnection struct {
	client *http.Client
	url    string
}

func (c *exportConnection) Strategy() string { return StrategyPublicCSV }

func (c *exportConnection) Fetch(ctx context.Context) (Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Table{}, fmt.Errorf("public_csv: build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Table{}, fmt.Errorf("public_csv: get %s: %w", c.url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExportBodyBytes))
	if err != nil {
		return Table{}, fmt.Errorf("public_csv: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Table{}, fmt.Errorf("public_csv: %s returned status %d", c.url, resp.StatusCode)
	}
	if len(body) <= minExportBodyBytes {
		return Table{}, fmt.Errorf("public_csv: %s returned %d bytes", c.url, len(body))
	}
	return parseCSV(bytes.NewReader(body))
}

type fileConnection struct {
	path string
}

func (c *fileConnection) Strategy() string { return StrategyPublicCSV }

func (c *fileConnection) Fetch(_ context.Context) (Table, error) {
	file, err := os.Open(c.path)
	if err != nil {
		return Table{}, fmt.Errorf("public_csv: open %s: %w", c.path, err)
	}
	defer file.Close()
	return parseCSV(file)
}

func parseCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("public_csv: parse: %w", err)
	}
	if len(records) == 0 {
		return Table{}, nil
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return Table{Header: header, Rows: records[1:]}, nil
}
