package listing_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"listingcast/internal/config"
	"listingcast/internal/listing"
)

func testBranding() listing.Branding {
	return listing.BrandingFromConfig(config.Default().Branding)
}

func TestMockCollectorDeterministic(t *testing.T) {
	var c listing.MockCollector
	first, err := c.Collect(context.Background(), "서울시 강남구 대치동", "아파트", "notice")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	second, _ := c.Collect(context.Background(), "서울시 강남구 대치동", "아파트", "notice")
	if first.AveragePrice != second.AveragePrice || first.PriceTrend != second.PriceTrend {
		t.Fatalf("expected identical records, got %+v and %+v", first, second)
	}
	price, err := strconv.Atoi(strings.TrimSuffix(first.AveragePrice, "만원"))
	if err != nil {
		t.Fatalf("price %q not numeric: %v", first.AveragePrice, err)
	}
	if price < 30000 || price > 80000 {
		t.Fatalf("price %d out of range", price)
	}
	if len(first.RecentTrades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(first.RecentTrades))
	}
	if first.Notice != "notice" {
		t.Fatalf("notice not carried: %q", first.Notice)
	}
	switch first.PriceTrend {
	case "상승", "보합", "하락":
	default:
		t.Fatalf("unexpected trend %q", first.PriceTrend)
	}
}

func TestBrandingApplyDefaultsNotice(t *testing.T) {
	b := testBranding()
	p := b.Apply(listing.Property{Address: "a"})
	if p.Notice != b.DefaultNotice {
		t.Fatalf("expected default notice, got %q", p.Notice)
	}
	p = b.Apply(listing.Property{Address: "a", Notice: "custom"})
	if p.Notice != "custom" {
		t.Fatalf("expected custom notice kept, got %q", p.Notice)
	}
	if p.Contact != b.Contact {
		t.Fatalf("expected contact applied")
	}
}

func TestTitleStable(t *testing.T) {
	b := testBranding()
	title := b.Title("서울시 서초구 반포동", "오피스텔")
	if title != b.Title("서울시 서초구 반포동", "오피스텔") {
		t.Fatalf("title not stable")
	}
	if !strings.Contains(title, "서울시 서초구 반포동") || !strings.Contains(title, b.Agency) {
		t.Fatalf("title missing address or agency: %q", title)
	}
}

func TestDescriptionSections(t *testing.T) {
	b := testBranding()
	p := b.Apply(listing.Property{Address: "addr", Type: "아파트", Notice: "주의"})
	desc := b.Description(p, []string{"부동산", "시세 분석"})
	for _, want := range []string{"주요 정보", "전문가 분석", "광고시 유의사항:\n주의", "문의: ", "#부동산 #시세분석"} {
		if !strings.Contains(desc, want) {
			t.Fatalf("description missing %q:\n%s", want, desc)
		}
	}
}

func TestBuildScriptEmbedsNotice(t *testing.T) {
	b := testBranding()
	p, _ := listing.MockCollector{}.Collect(context.Background(), "addr", "아파트", "고유한 유의사항 문구")
	p = b.Apply(p)
	script, err := listing.BuildScript(p, b)
	if err != nil {
		t.Fatalf("script: %v", err)
	}
	if !strings.Contains(script.Text, "고유한 유의사항 문구") {
		t.Fatalf("script missing notice")
	}
	if !strings.Contains(script.Text, p.AveragePrice) {
		t.Fatalf("script missing price")
	}
	if script.Notice != "고유한 유의사항 문구" || script.WordCount == 0 || script.Duration <= 0 {
		t.Fatalf("unexpected script metadata: %+v", script)
	}
}

func TestBuildDeckOrder(t *testing.T) {
	b := testBranding()
	p := b.Apply(listing.Property{Address: "addr", Type: "아파트", Notice: "line one\nline two"})
	deck := listing.BuildDeck(p, b)
	if len(deck.Slides) != 4 {
		t.Fatalf("expected 4 slides, got %d", len(deck.Slides))
	}
	last := deck.Slides[3]
	if last.Title != listing.NoticeSlideTitle || last.Body != "line one\nline two" {
		t.Fatalf("notice slide mismatch: %+v", last)
	}
	if !strings.Contains(deck.Document(), "[4] "+listing.NoticeSlideTitle) {
		t.Fatalf("document missing notice section")
	}
}

func TestScrapeCollectorExtractsFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			http.Error(w, "missing", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`<html><body>
<span class="price"> 95000만원 </span>
<span class="trend">상승</span>
<ul><li class="trade">94000만원</li><li class="trade">96000만원</li></ul>
</body></html>`))
	}))
	defer srv.Close()

	cfg := config.Default().Listing
	cfg.Collector = "scrape"
	cfg.LookupURL = srv.URL + "/?q={address}"
	cfg.PriceSelector = ".price"
	cfg.TrendSelector = ".trend"
	cfg.TradesSelector = ".trade"
	collector := listing.NewCollector(cfg, srv.Client(), nil)

	p, err := collector.Collect(context.Background(), "서울 강남", "아파트", "n")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if p.AveragePrice != "95000만원" || p.PriceTrend != "상승" {
		t.Fatalf("unexpected scraped fields: %+v", p)
	}
	if len(p.RecentTrades) != 2 || p.RecentTrades[1] != "96000만원" {
		t.Fatalf("unexpected trades: %v", p.RecentTrades)
	}
	if p.SchoolInfo == "" {
		t.Fatalf("expected mock school info fill")
	}
}

func TestScrapeCollectorFallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := config.Default().Listing
	cfg.LookupURL = srv.URL + "/{address}"
	collector := listing.NewScrapeCollector(cfg, srv.Client(), nil)
	got, err := collector.Collect(context.Background(), "addr", "아파트", "n")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want, _ := listing.MockCollector{}.Collect(context.Background(), "addr", "아파트", "n")
	if got.AveragePrice != want.AveragePrice {
		t.Fatalf("expected mock fallback, got %+v", got)
	}
}
