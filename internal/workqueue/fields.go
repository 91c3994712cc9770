package workqueue

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Column aliases, tried in order; the first non-empty match wins.
var (
	statusFields   = []string{"status", "상태", "Status", "처리상태", "진행상태"}
	addressFields  = []string{"address", "주소", "Address", "부동산주소", "매물주소"}
	typeFields     = []string{"property_type", "매물유형", "Type", "부동산유형", "PropertyType"}
	noticeFields   = []string{"광고시유의사항", "광고시 유의사항", "advertising_notice", "유의사항", "notice", "Advertising Notice", "주의사항"}
	priorityFields = []string{"priority", "우선순위", "Priority"}
	createdFields  = []string{"created_date", "등록일"}
)

// Header keywords for write-back; a header matches when it contains a keyword.
var (
	statusHeaders = []string{"status", "상태", "처리상태"}
	urlHeaders    = []string{"url", "링크", "link", "youtube", "video_url", "동영상링크"}
)

// normalizeKey folds case, composes Hangul jamo, and drops whitespace so that
// "Advertising Notice", "advertising notice" and decomposed Korean headers compare equal.
func normalizeKey(key string) string {
	folded := cases.Fold().String(norm.NFC.String(strings.TrimSpace(key)))
	return strings.Join(strings.Fields(folded), "")
}

// record is one data row keyed by header.
type record struct {
	values     map[string]string
	normalized map[string]string
}

func newRecord(header, row []string) record {
	rec := record{
		values:     make(map[string]string, len(header)),
		normalized: make(map[string]string, len(header)),
	}
	for i, name := range header {
		if i >= len(row) {
			break
		}
		value := strings.TrimSpace(row[i])
		if _, seen := rec.values[name]; !seen {
			rec.values[name] = value
		}
		key := normalizeKey(name)
		if existing := rec.normalized[key]; existing == "" {
			rec.normalized[key] = value
		}
	}
	return rec
}

// lookup returns the first non-empty value among aliases, exact header match first.
func (r record) lookup(aliases []string) string {
	for _, alias := range aliases {
		if value := r.values[alias]; value != "" {
			return value
		}
	}
	for _, alias := range aliases {
		if value := r.normalized[normalizeKey(alias)]; value != "" {
			return value
		}
	}
	return ""
}

// findColumn returns the 1-based index of the first header containing any keyword, or 0.
func findColumn(header []string, keywords []string) int {
	for i, name := range header {
		normalized := normalizeKey(name)
		for _, keyword := range keywords {
			if strings.Contains(normalized, normalizeKey(keyword)) {
				return i + 1
			}
		}
	}
	return 0
}

// columnLetters converts a 1-based column index to A1 notation letters.
func columnLetters(col int) string {
	if col <= 0 {
		return ""
	}
	var letters []byte
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return string(letters)
}

// a1 renders a cell reference such as "C7".
func a1(row int64, col int) string {
	return columnLetters(col) + strconv.FormatInt(row, 10)
}
