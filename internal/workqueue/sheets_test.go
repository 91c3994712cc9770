package workqueue_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"listingcast/internal/workqueue"
)

const testAPIKey = "AIzaSyTestKeyThatIsLongEnough"

func TestSheetsAPIKeyConnector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != testAPIKey || r.URL.Query().Get("majorDimension") != "ROWS" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		if !strings.HasSuffix(r.URL.Path, "/sheet123/values/A:Z") {
			http.Error(w, "bad path "+r.URL.Path, http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"values": [][]string{{"주소", "상태"}, {"서울시 강남구", ""}},
		})
	}))
	defer server.Close()

	connector := &workqueue.SheetsAPIKeyConnector{Client: server.Client(), APIKey: testAPIKey, BaseURL: server.URL}
	conn, err := connector.Connect(context.Background(), "https://docs.google.com/spreadsheets/d/sheet123/edit")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	table, err := conn.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(table.Rows) != 1 || table.Header[0] != "주소" {
		t.Fatalf("unexpected table %+v", table)
	}
	if _, ok := conn.(workqueue.CellWriter); ok {
		t.Fatal("api key connections must be read-only")
	}
}

func TestSheetsAPIKeyRejectsShortKey(t *testing.T) {
	connector := &workqueue.SheetsAPIKeyConnector{APIKey: "short"}
	if _, err := connector.Connect(context.Background(), "spreadsheets/d/abc"); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestSheetsOAuthWritesCells(t *testing.T) {
	var (
		mu     sync.Mutex
		writes []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"values": [][]string{{"address", "status", "url"}, {"Seoul Gangnam Apt", ""}},
			})
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			writes = append(writes, r.URL.Path+" "+r.URL.Query().Get("valueInputOption")+" "+string(body))
			mu.Unlock()
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer server.Close()

	tokenPath := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(tokenPath, []byte(`{"access_token":"token-1"}`), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}
	connector := &workqueue.SheetsOAuthConnector{Client: server.Client(), TokenFile: tokenPath, BaseURL: server.URL}
	conn, err := connector.Connect(context.Background(), "spreadsheets/d/sheet9")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	writer, ok := conn.(workqueue.CellWriter)
	if !ok {
		t.Fatal("expected oauth connection to be writable")
	}
	if err := writer.WriteCell(context.Background(), workqueue.Cell{Row: 2, Column: 2, Header: "status"}, "완료"); err != nil {
		t.Fatalf("WriteCell: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(writes) != 1 || !strings.Contains(writes[0], "/sheet9/values/B2 RAW") || !strings.Contains(writes[0], "완료") {
		t.Fatalf("unexpected writes %v", writes)
	}
}

func TestSheetsOAuthRequiresToken(t *testing.T) {
	connector := &workqueue.SheetsOAuthConnector{TokenFile: filepath.Join(t.TempDir(), "missing.json")}
	if _, err := connector.Connect(context.Background(), "spreadsheets/d/abc"); err == nil {
		t.Fatal("expected error for missing token file")
	}
}
