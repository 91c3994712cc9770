package listing

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Slide is one page of the marketing deck.
type Slide struct {
	Title string
	Body  string
}

// Deck is the ordered slide outline for one property.
type Deck struct {
	Address string
	Slides  []Slide
}

// NoticeSlideTitle heads the advertising notice slide.
const NoticeSlideTitle = "광고시 유의사항"

const analysisExcerpt = 150

// BuildDeck returns the title, price analysis, location and advertising
// notice slides in that order. The notice slide body is the property notice
// verbatim.
func BuildDeck(p Property, b Branding) Deck {
	analysis := p.MarketAnalysis
	if utf8.RuneCountInString(analysis) > analysisExcerpt {
		analysis = string([]rune(analysis)[:analysisExcerpt]) + "..."
	}
	return Deck{
		Address: p.Address,
		Slides: []Slide{
			{
				Title: b.Agency + " 전문가 분석",
				Body:  fmt.Sprintf("%s\n%s 투자 분석 리포트", p.Address, p.Type),
			},
			{
				Title: "현재 시세 분석",
				Body: fmt.Sprintf("평균 시세: %s\n최근 거래가: %s\n시장 트렌드: %s\n\n전문가 분석:\n%s",
					p.AveragePrice, strings.Join(p.RecentTrades, ", "), p.PriceTrend, analysis),
			},
			{
				Title: "입지 및 교통 분석",
				Body: fmt.Sprintf("교육 환경: %s\n교통 접근성: %s\n생활 편의시설: 대형마트, 병원, 공원 인근",
					p.SchoolInfo, p.TransportInfo),
			},
			{
				Title: NoticeSlideTitle,
				Body:  p.Notice,
			},
		},
	}
}

// Document renders the deck as plain text, one section per slide.
func (d Deck) Document() string {
	var sb strings.Builder
	for i, slide := range d.Slides {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%d] %s\n%s\n", i+1, slide.Title, slide.Body)
	}
	return sb.String()
}
