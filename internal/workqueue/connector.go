package workqueue

import (
	"context"
	"errors"
)

// Strategy names, in the default negotiation order.
const (
	StrategyDatabase  = "database"
	StrategyPublicCSV = "public_csv"
	StrategyAPIKey    = "api_key"
	StrategyOAuth     = "oauth"
	StrategyFallback  = "fallback"
)

// ErrNotConfigured reports that a strategy lacks the credentials or reference it needs.
var ErrNotConfigured = errors.New("strategy not configured")

// Table is a header row plus data rows, in queue order.
type Table struct {
	Header []string
	Rows   [][]string
}

// Cell addresses one queue cell. Row uses WorkItem.ID numbering; Column is 1-based.
type Cell struct {
	Row    int64
	Column int
	Header string
}

// Connector is one way of reaching the queue.
type Connector interface {
	Name() string
	Connect(ctx context.Context, ref string) (Connection, error)
}

// Connection is an established queue handle.
type Connection interface {
	Strategy() string
	Fetch(ctx context.Context) (Table, error)
}

// CellWriter is implemented by connections that can write status back.
type CellWriter interface {
	WriteCell(ctx context.Context, cell Cell, value string) error
}
