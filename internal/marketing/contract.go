package marketing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"listingcast/internal/listing"
)

// ContractsDir holds generated contracts inside the output directory.
const ContractsDir = "계약서"

const (
	blankName      = "___________"
	signatureBlank = "___________________"
	termsLimit     = 200
)

// Parties names the contract signatories. Empty names are left blank.
type Parties struct {
	Seller string
	Buyer  string
}

// Contract writes a sales contract for p as a markdown document under
// dir/계약서 and returns its path.
func Contract(p listing.Property, b listing.Branding, parties Parties, dir string, now time.Time) (string, error) {
	out := filepath.Join(dir, ContractsDir)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", fmt.Errorf("create contracts directory: %w", err)
	}
	path := filepath.Join(out, ContractFileName(p.Address))
	if err := os.WriteFile(path, []byte(RenderContract(p, b, parties, now)), 0o644); err != nil {
		return "", fmt.Errorf("write contract: %w", err)
	}
	return path, nil
}

// ContractFileName returns 매매계약서_<address>.md with path separators replaced.
func ContractFileName(address string) string {
	return "매매계약서_" + strings.ReplaceAll(address, "/", "_") + ".md"
}

// RenderContract returns the contract document text.
func RenderContract(p listing.Property, b listing.Branding, parties Parties, now time.Time) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"항목", "내용"})
	tw.AppendRows([]table.Row{
		{"매물 주소", p.Address},
		{"매매 가격", p.AveragePrice},
		{"매물 유형", p.Type},
		{"계약 일자", fmt.Sprintf("%d년 __월 __일", now.Year())},
		{"매도인", orBlank(parties.Seller)},
		{"매수인", orBlank(parties.Buyer)},
		{"중개업소", b.Agency},
		{"특약사항", ellipsis(strings.Join(strings.Fields(p.MarketAnalysis), " "), termsLimit)},
	})

	var sb strings.Builder
	sb.WriteString("# 부동산 매매계약서\n\n")
	sb.WriteString(tw.RenderMarkdown())
	sb.WriteString("\n\n")
	for _, role := range []string{"매도인", "매수인", "중개인"} {
		fmt.Fprintf(&sb, "%s 서명: %s    날짜: %s\n\n", role, signatureBlank, blankName)
	}
	return sb.String()
}

func orBlank(name string) string {
	if strings.TrimSpace(name) == "" {
		return blankName
	}
	return name
}
