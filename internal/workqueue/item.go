package workqueue

import (
	"strconv"
	"strings"
)

// Status is the queue-side processing state of a work item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusError      Status = "error"
	StatusUnknown    Status = "unknown"
)

// DefaultCategory is used when a row has no property type.
const DefaultCategory = "아파트"

// WorkItem is one listing row.
type WorkItem struct {
	// ID is the sheet row number: zero-based data index plus two (header row and 1-based rows).
	ID          int64
	Subject     string
	Category    string
	Annotation  string
	Status      Status
	RawStatus   string
	Priority    string
	CreatedDate string
}

// Key returns the composite identity used for de-duplication.
func (w WorkItem) Key() string {
	return strconv.FormatInt(w.ID, 10) + "_" + w.Subject
}

var (
	waitingKeywords    = []string{"대기", "pending", "처리전", "신규", "new"}
	inProgressKeywords = []string{"처리중", "진행중", "in_progress", "in progress", "processing"}
	doneKeywords       = []string{"완료", "done", "complete"}
	errorKeywords      = []string{"오류", "실패", "error", "fail"}
)

// ClassifyStatus maps a raw status cell onto a Status. Empty cells and any
// value containing a waiting keyword are pending.
func ClassifyStatus(raw string) Status {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case value == "" || containsAny(value, waitingKeywords):
		return StatusPending
	case containsAny(value, inProgressKeywords):
		return StatusInProgress
	case containsAny(value, doneKeywords):
		return StatusDone
	case containsAny(value, errorKeywords):
		return StatusError
	default:
		return StatusUnknown
	}
}

func containsAny(value string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(value, keyword) {
			return true
		}
	}
	return false
}

// SampleItems is the fixed set returned when no queue strategy connects.
func SampleItems(createdDate string) []WorkItem {
	return []WorkItem{
		{
			ID:          1,
			Subject:     "서울시 강남구 대치동 아파트",
			Category:    "아파트",
			Annotation:  "본 영상은 정보 제공 목적으로 제작되었으며, 투자 권유가 아닙니다. 부동산 투자 시 신중한 검토가 필요합니다.",
			Status:      StatusPending,
			RawStatus:   "대기중",
			Priority:    "high",
			CreatedDate: createdDate,
		},
		{
			ID:          2,
			Subject:     "서울시 서초구 반포동 오피스텔",
			Category:    "오피스텔",
			Annotation:  "투자에는 리스크가 따르며, 투자 결과에 대한 책임은 투자자 본인에게 있습니다. 전문가와 상담 후 결정하시기 바랍니다.",
			Status:      StatusPending,
			RawStatus:   "대기중",
			Priority:    "medium",
			CreatedDate: createdDate,
		},
	}
}
