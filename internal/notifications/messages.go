package notifications

import (
	"fmt"
	"strings"
)

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

const timeLayout = "2006-01-02 15:04:05"

func completedMessage(agency string, event Event) message {
	var b strings.Builder
	fmt.Fprintf(&b, "%s 콘텐츠 자동 생성 완료!\n\n", agency)
	fmt.Fprintf(&b, "주소: %s\n", event.Subject)
	fmt.Fprintf(&b, "완료 시간: %s\n", event.At.Format(timeLayout))
	if event.Reference != "" {
		fmt.Fprintf(&b, "영상: %s\n", event.Reference)
	}
	if event.Deck != "" {
		fmt.Fprintf(&b, "슬라이드: %s\n", event.Deck)
	}
	fmt.Fprintf(&b, "\n%s 자동화 시스템", agency)
	return message{
		title: "listingcast - Published",
		body:  b.String(),
		tags:  []string{"listingcast", "video", "completed"},
	}
}

func failedMessage(agency string, event Event) message {
	detail := event.Error
	if detail == "" {
		detail = "unknown"
	}
	return message{
		title:    "listingcast - Error",
		body:     fmt.Sprintf("%s 콘텐츠 생성 실패\n\n주소: %s\n오류: %s\n시간: %s", agency, event.Subject, detail, event.At.Format(timeLayout)),
		tags:     []string{"listingcast", "error", "alert"},
		priority: "high",
	}
}

func monitorStartedMessage(agency string, event Event) message {
	return message{
		title:    "listingcast - Monitoring",
		body:     fmt.Sprintf("%s 매물 모니터링 시작\n\n대상: %s", agency, event.Reference),
		tags:     []string{"listingcast", "monitor"},
		priority: "low",
	}
}

func testMessage(agency string) message {
	return message{
		title:    "listingcast - Test",
		body:     fmt.Sprintf("%s 알림 테스트", agency),
		tags:     []string{"listingcast", "test"},
		priority: "low",
	}
}
