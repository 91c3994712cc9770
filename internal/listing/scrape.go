package listing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"listingcast/internal/config"
	"listingcast/internal/logging"
)

// ScrapeCollector reads property figures from a lookup page. Fields the page
// does not provide are filled from the deterministic mock record, and any
// fetch failure falls back to the mock record entirely.
type ScrapeCollector struct {
	client    *http.Client
	lookupURL string
	selectors config.Listing
	logger    *slog.Logger
}

// NewScrapeCollector builds a collector from the listing configuration.
func NewScrapeCollector(cfg config.Listing, client *http.Client, logger *slog.Logger) *ScrapeCollector {
	if client == nil {
		client = http.DefaultClient
	}
	return &ScrapeCollector{
		client:    client,
		lookupURL: cfg.LookupURL,
		selectors: cfg,
		logger:    logging.NewComponentLogger(logger, "listing"),
	}
}

// Collect implements Collector.
func (s *ScrapeCollector) Collect(ctx context.Context, address, propertyType, notice string) (Property, error) {
	property := mockProperty(address, propertyType, notice)
	doc, err := s.fetchDocument(ctx, address)
	if err != nil {
		logging.WarnWithContext(s.logger, "property lookup failed; using estimated figures", "listing_lookup_failed",
			logging.String(logging.FieldSubject, address),
			logging.Error(err),
			logging.String(logging.FieldImpact, "video uses estimated price figures"),
			logging.String(logging.FieldErrorHint, "check listing.lookup_url and selectors"),
		)
		return property, nil
	}

	if v := selectText(doc, s.selectors.PriceSelector); v != "" {
		property.AveragePrice = v
	}
	if v := selectText(doc, s.selectors.TrendSelector); v != "" {
		property.PriceTrend = v
	}
	if v := selectText(doc, s.selectors.SchoolSelector); v != "" {
		property.SchoolInfo = v
	}
	if v := selectText(doc, s.selectors.TransportSelector); v != "" {
		property.TransportInfo = v
	}
	if v := selectText(doc, s.selectors.AnalysisSelector); v != "" {
		property.MarketAnalysis = v
	}
	if s.selectors.TradesSelector != "" {
		var trades []string
		doc.Find(s.selectors.TradesSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if text := strings.TrimSpace(sel.Text()); text != "" {
				trades = append(trades, text)
			}
			return len(trades) < 3
		})
		if len(trades) > 0 {
			property.RecentTrades = trades
		}
	}
	return property, nil
}

func (s *ScrapeCollector) fetchDocument(ctx context.Context, address string) (*goquery.Document, error) {
	pageURL := strings.ReplaceAll(s.lookupURL, "{address}", url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "listingcast/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup returned %s", resp.Status)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func selectText(doc *goquery.Document, selector string) string {
	if strings.TrimSpace(selector) == "" {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find(selector).First().Text()), " ")
}

// NewCollector returns the collector named by listing.collector.
func NewCollector(cfg config.Listing, client *http.Client, logger *slog.Logger) Collector {
	if cfg.Collector == "scrape" {
		return NewScrapeCollector(cfg, client, logger)
	}
	return MockCollector{}
}
