package listing

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// Property is the structured record the pipeline renders from.
type Property struct {
	Address        string
	Type           string
	AveragePrice   string
	RecentTrades   []string
	PriceTrend     string
	MarketAnalysis string
	SchoolInfo     string
	TransportInfo  string
	Notice         string
	Contact        string
	BrandMessage   string
}

// Collector produces a Property for an address. notice is carried verbatim;
// an empty notice is replaced by the branding default by the caller.
type Collector interface {
	Collect(ctx context.Context, address, propertyType, notice string) (Property, error)
}

var trends = []string{"상승", "보합", "하락"}

// MockCollector derives plausible figures from a hash of the address so the
// same address always yields the same record.
type MockCollector struct{}

// Collect implements Collector.
func (MockCollector) Collect(_ context.Context, address, propertyType, notice string) (Property, error) {
	return mockProperty(address, propertyType, notice), nil
}

func mockProperty(address, propertyType, notice string) Property {
	seed := hash32(address)
	base := 30000 + int(seed%50001)
	offset := func(shift uint, spread int) int {
		return int((seed>>shift)%uint32(2*spread+1)) - spread
	}
	trend := trends[(seed>>7)%uint32(len(trends))]
	return Property{
		Address:      address,
		Type:         propertyType,
		AveragePrice: fmt.Sprintf("%d만원", base),
		RecentTrades: []string{
			fmt.Sprintf("%d만원", base+offset(3, 500)),
			fmt.Sprintf("%d만원", base+offset(11, 300)),
			fmt.Sprintf("%d만원", base+offset(19, 200)),
		},
		PriceTrend: trend,
		MarketAnalysis: fmt.Sprintf("최근 3개월간 거래량이 증가하고 있으며, %s 추세를 보이고 있습니다. "+
			"주변 재개발 계획과 교통 호재로 인해 중장기적으로 안정적인 투자처로 평가됩니다.", trend),
		SchoolInfo:    "초등학교 도보 5분, 중학교 도보 8분, 고등학교 도보 12분",
		TransportInfo: "지하철 2호선 도보 10분, 버스정류장 3분, 고속도로 진입 15분",
		Notice:        notice,
	}
}

func hash32(value string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.TrimSpace(value)))
	return h.Sum32()
}
