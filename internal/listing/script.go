package listing

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// wordsPerMinute approximates narration speed for duration estimates.
const wordsPerMinute = 150

// Script is the narration text for one property.
type Script struct {
	Text      string
	Notice    string
	WordCount int
	Duration  time.Duration
}

var scriptTemplate = template.Must(template.New("script").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`{{.Intro}}

오늘은 {{.P.Address}} 지역의 {{.P.Type}} 시장을 전문가의 시각으로 분석해보겠습니다.

현재 이 지역 평균 시세는 {{.P.AveragePrice}}입니다. 최근 실거래가를 살펴보면, {{join .Trades ", "}}에 거래가 성사되었습니다.

시장 동향을 보면 현재 {{.P.PriceTrend}} 추세를 보이고 있습니다. {{.P.MarketAnalysis}}

교육 환경을 살펴보겠습니다. {{.P.SchoolInfo}}로 자녀 교육에 매우 유리한 조건입니다. 교통 접근성도 {{.P.TransportInfo}}로 출퇴근과 생활에 편리합니다.

투자 관점에서 보면, 이 지역은 다음과 같은 장점이 있습니다. 첫째, 우수한 학군으로 인한 수요 안정성. 둘째, 교통 호재로 인한 접근성 개선. 셋째, 주변 개발 계획으로 인한 미래 가치 상승 기대입니다.

{{.Agency}}의 전문가 의견으로는, 현재 시점에서 이 지역은 안정적인 투자처로 추천드립니다. 특히 장기 보유를 고려하신다면 더욱 유리할 것으로 판단됩니다.

{{.P.Notice}}

{{.Outro}}
`))

// BuildScript renders the narration script. The property notice is
// embedded verbatim.
func BuildScript(p Property, b Branding) (Script, error) {
	trades := p.RecentTrades
	if len(trades) > 3 {
		trades = trades[:3]
	}
	var buf bytes.Buffer
	err := scriptTemplate.Execute(&buf, struct {
		P      Property
		Trades []string
		Intro  string
		Outro  string
		Agency string
	}{P: p, Trades: trades, Intro: b.Intro, Outro: b.Outro, Agency: b.Agency})
	if err != nil {
		return Script{}, fmt.Errorf("render script: %w", err)
	}
	text := strings.TrimSpace(buf.String())
	words := len(strings.Fields(text))
	return Script{
		Text:      text,
		Notice:    p.Notice,
		WordCount: words,
		Duration:  time.Duration(words) * time.Minute / wordsPerMinute,
	}, nil
}
