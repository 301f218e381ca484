package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"kakeibo/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	today := core.MustParseDate("2024-08-15")

	tests := []struct {
		name    string
		query   string
		want    MonthParams
		wantErr bool
	}{
		{"defaults to today", "", MonthParams{Year: 2024, Month: 8}, false},
		{"explicit", "year=2023&month=2", MonthParams{Year: 2023, Month: 2}, false},
		{"only month", "month=12", MonthParams{Year: 2024, Month: 12}, false},
		{"spaces trimmed", "year=%202022%20", MonthParams{Year: 2022, Month: 8}, false},
		{"bad year", "year=abc", MonthParams{}, true},
		{"bad month", "month=1.5", MonthParams{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseMonthParams(q, today)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseDateParam(t *testing.T) {
	q := url.Values{"from": {"2024-02-29"}, "to": {"2023-02-29"}}

	if d, err := ParseDateParam(q, "from"); err != nil || d != core.NewDate(2024, 2, 29) {
		t.Errorf("from = %v, %v", d, err)
	}
	if _, err := ParseDateParam(q, "to"); err == nil {
		t.Error("2023-02-29 should not parse")
	}
	if d, err := ParseDateParam(q, "missing"); err != nil || !d.IsZero() {
		t.Errorf("missing = %v, %v", d, err)
	}
}

func TestDecodeJSONTooLarge(t *testing.T) {
	body := `{"memo":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dst transactionRequest
	err := DecodeJSON(httptest.NewRecorder(), r, &dst)
	if err == nil || !strings.Contains(err.Error(), "larger than") {
		t.Errorf("err = %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  plain ":        "plain",
		"a\x00b\x07c":     "abc",
		"tab\tkept":       "tab\tkept",
		"\x1b[31mred\n":   "[31mred",
		"":                "",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestViewerHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderUserID, " u1\x00 ")
	if got := Viewer(r); got != "u1" {
		t.Errorf("Viewer() = %q", got)
	}
}
