package sheets

import (
	"context"
	"strconv"
	"time"

	"fintrack/internal/core"
)

// LedgerHeader names the columns written by Values.
var LedgerHeader = []any{"Timestamp", "Action", "Kind", "ID", "User", "Name", "Category", "Amount", "Date"}

// LedgerEntry is one audit row describing a record change.
// Name, Label, Amount and Date are empty for deleted records.
type LedgerEntry struct {
	Timestamp time.Time
	Action    string
	Kind      string
	ID        int64
	UserID    int64
	Name      string
	Label     string // category or income source
	Amount    core.Money
	Date      core.Date
	HasAmount bool
}

// Values renders the entry in LedgerHeader order. Text is quoted so the
// sheet never evaluates it as a formula.
func (e LedgerEntry) Values() []any {
	row := []any{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Action,
		e.Kind,
		strconv.FormatInt(e.ID, 10),
		strconv.FormatInt(e.UserID, 10),
		core.CellText(e.Name),
		core.CellText(e.Label),
		"",
		"",
	}
	if e.HasAmount {
		row[7] = e.Amount.String()
	}
	if !e.Date.IsEmpty() {
		row[8] = e.Date.String()
	}
	return row
}

// LedgerWriter appends entries to an external ledger.
type LedgerWriter interface {
	AppendEntry(ctx context.Context, e LedgerEntry) (rowRef string, err error)
}
