package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"spendwise/internal/core"
	"spendwise/internal/report"
)

func newParser(t *testing.T, body string) (*RequestBodyParser, error) {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return ParseBody(httptest.NewRecorder(), r)
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantJSON bool
		want     map[string]string
	}{
		{
			name:     "json with number amount",
			body:     `{"title":" Lunch ","amount":12.5,"category":"Food"}`,
			wantJSON: true,
			want:     map[string]string{"title": "Lunch", "amount": "12.5", "category": "Food"},
		},
		{
			name: "form encoded",
			body: "title=Taxi&amount=7.00&date=2024-03-01",
			want: map[string]string{"title": "Taxi", "amount": "7.00", "date": "2024-03-01"},
		},
		{
			name: "control characters are stripped",
			body: "title=Bad%00Title",
			want: map[string]string{"title": "BadTitle"},
		},
		{
			name: "empty body",
			body: "",
			want: map[string]string{"title": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := newParser(t, tt.body)
			if err != nil {
				t.Fatalf("ParseBody() error = %v", err)
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON() = %v, want %v", p.IsJSON(), tt.wantJSON)
			}
			for k, v := range tt.want {
				if got := p.Get(k); got != v {
					t.Errorf("Get(%q) = %q, want %q", k, got, v)
				}
			}
		})
	}
}

func TestRequestBodyParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"title":`},
		{"too large", "title=" + strings.Repeat("a", maxBodyBytes+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newParser(t, tt.body)
			var verr *core.ValidationError
			if !errors.As(err, &verr) || verr.Field != "body" {
				t.Errorf("ParseBody() error = %v, want body validation error", err)
			}
		})
	}
}

func TestRequestBodyParser_GetExactAndHas(t *testing.T) {
	p, err := newParser(t, `{"password":" secret ","theme":"dark"}`)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.GetExact("password"); got != " secret " {
		t.Errorf("GetExact() = %q, want whitespace preserved", got)
	}
	if !p.Has("theme") || p.Has("currency") {
		t.Error("Has() reported wrong keys")
	}
}

func TestExpenseDraft(t *testing.T) {
	p, err := newParser(t, "title=Lunch&amount=12.50&category=food&date=2024-03-01&notes=team")
	if err != nil {
		t.Fatal(err)
	}
	want := core.Draft{Title: "Lunch", Amount: "12.50", Category: "food", Date: "2024-03-01", Notes: "team"}
	if got := p.ExpenseDraft(); got != want {
		t.Errorf("ExpenseDraft() = %+v, want %+v", got, want)
	}
}

func TestParseReportQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    report.Query
		wantErr string
	}{
		{
			name:  "defaults",
			query: url.Values{},
			want:  report.Query{Range: report.RangeAll, Category: report.AllCategories},
		},
		{
			name:  "all selectors",
			query: url.Values{"range": {"3months"}, "category": {"Food"}, "predict": {"true"}},
			want:  report.Query{Range: report.RangeThreeMonths, Category: "Food", Predict: true},
		},
		{
			name:    "unknown range",
			query:   url.Values{"range": {"2weeks"}},
			wantErr: "range",
		},
		{
			name:    "bad predict",
			query:   url.Values{"predict": {"maybe"}},
			wantErr: "predict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReportQuery(tt.query)
			if tt.wantErr != "" {
				var verr *core.ValidationError
				if !errors.As(err, &verr) || verr.Field != tt.wantErr {
					t.Fatalf("ParseReportQuery() error = %v, want field %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReportQuery() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseReportQuery() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSessionToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if tok, _ := sessionToken(r); tok != "" {
		t.Errorf("sessionToken() = %q, want empty", tok)
	}

	r.Header.Set("Authorization", "Bearer abc")
	if tok, fromCookie := sessionToken(r); tok != "abc" || fromCookie {
		t.Errorf("sessionToken() = %q, %v, want abc from header", tok, fromCookie)
	}

	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "xyz"})
	if tok, fromCookie := sessionToken(r); tok != "xyz" || !fromCookie {
		t.Errorf("sessionToken() = %q, %v, want cookie token", tok, fromCookie)
	}
}
