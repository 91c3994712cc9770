package listing

import (
	"fmt"
	"strings"

	"listingcast/internal/config"
)

// Brand palette shared by slides, thumbnails and cards.
const (
	ColorPrimary    = "#1E3A8A"
	ColorSecondary  = "#F59E0B"
	ColorAccent     = "#10B981"
	ColorText       = "#1F2937"
	ColorBackground = "#F9FAFB"
	ColorWarning    = "#EF4444"
)

// Branding is the agency identity stamped onto every artifact.
type Branding struct {
	Agency        string
	Contact       string
	BrandMessage  string
	DefaultNotice string
	Intro         string
	Outro         string
}

// BrandingFromConfig copies the branding section.
func BrandingFromConfig(cfg config.Branding) Branding {
	return Branding{
		Agency:        cfg.AgencyName,
		Contact:       cfg.Contact,
		BrandMessage:  cfg.BrandMessage,
		DefaultNotice: cfg.DefaultNotice,
		Intro:         cfg.Intro,
		Outro:         cfg.Outro,
	}
}

// Apply fills the contact, brand message and, when empty, the notice.
func (b Branding) Apply(p Property) Property {
	p.Contact = b.Contact
	p.BrandMessage = b.BrandMessage
	if strings.TrimSpace(p.Notice) == "" {
		p.Notice = b.DefaultNotice
	}
	return p
}

var titleTemplates = []string{
	"%[1]s %[2]s 완벽 분석 | %[3]s",
	"지금 사야 할까? %[1]s 시세 분석 | %[3]s 전문가",
	"%[1]s %[2]s 투자 포인트 3가지 | %[3]s",
	"핫한 %[1]s 부동산 시장 분석 | %[3]s",
	"%[1]s %[2]s 급등 예상? 전문가 분석 | %[3]s",
}

// Title picks one of the title templates by a hash of the address.
func (b Branding) Title(address, propertyType string) string {
	tmpl := titleTemplates[hash32(address)%uint32(len(titleTemplates))]
	return fmt.Sprintf(tmpl, address, propertyType, b.Agency)
}

// Description renders the publish description for p.
func (b Branding) Description(p Property, tags []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s 전문가 분석\n\n", p.Address, p.Type)
	sb.WriteString("주요 정보:\n")
	fmt.Fprintf(&sb, "• 평균 시세: %s\n", p.AveragePrice)
	fmt.Fprintf(&sb, "• 시장 트렌드: %s\n", p.PriceTrend)
	fmt.Fprintf(&sb, "• 교육 환경: %s\n", p.SchoolInfo)
	fmt.Fprintf(&sb, "• 교통 접근성: %s\n\n", p.TransportInfo)
	fmt.Fprintf(&sb, "전문가 분석:\n%s\n\n", p.MarketAnalysis)
	fmt.Fprintf(&sb, "광고시 유의사항:\n%s\n\n", p.Notice)
	fmt.Fprintf(&sb, "문의: %s\n", p.Contact)
	fmt.Fprintf(&sb, "%s\n", p.BrandMessage)
	if len(tags) > 0 {
		sb.WriteByte('\n')
		for i, tag := range tags {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString("#" + strings.ReplaceAll(strings.TrimSpace(tag), " ", ""))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
