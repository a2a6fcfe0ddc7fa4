package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"giftwallet/internal/core"
)

func TestParseNewCard(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        core.NewCard
		wantErr     bool
	}{
		{
			name:        "json body",
			contentType: "application/json",
			body:        `{"lastFourDigits":"1111","balance":"100","expiryMonth":"12","expiryYear":"26","isExpired":false}`,
			want:        core.NewCard{LastFourDigits: "1111", Balance: "100", ExpiryMonth: "12", ExpiryYear: "26"},
		},
		{
			name:        "numeric balance in json",
			contentType: "application/json",
			body:        `{"lastFourDigits":"2222","balance":8.5,"expiryMonth":"03","expiryYear":"25"}`,
			want:        core.NewCard{LastFourDigits: "2222", Balance: "8.5", ExpiryMonth: "03", ExpiryYear: "25"},
		},
		{
			name:        "form body",
			contentType: "application/x-www-form-urlencoded",
			body:        "lastFourDigits=3333&balance=25.00&expiryMonth=06&expiryYear=27",
			want:        core.NewCard{LastFourDigits: "3333", Balance: "25.00", ExpiryMonth: "06", ExpiryYear: "27"},
		},
		{
			name:        "control characters are stripped",
			contentType: "application/json",
			body:        `{"lastFourDigits":" 44\u000044 ","balance":"1","expiryMonth":"01","expiryYear":"30"}`,
			want:        core.NewCard{LastFourDigits: "4444", Balance: "1", ExpiryMonth: "01", ExpiryYear: "30"},
		},
		{name: "empty body", contentType: "application/json", body: "", wantErr: true},
		{name: "broken json", contentType: "application/json", body: `{"lastFourDigits":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/cards", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			got, err := ParseNewCard(httptest.NewRecorder(), req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseNewCard_TooLarge(t *testing.T) {
	body := `{"lastFourDigits":"` + strings.Repeat("1", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/cards", strings.NewReader(body))
	_, err := ParseNewCard(httptest.NewRecorder(), req)

	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		t.Fatalf("expected MaxBytesError, got %v", err)
	}
	if resp := parseErrorResponse(err); resp.statusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d", resp.statusCode)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  hello  ":      "hello",
		"a\x00b\x07c":    "abc",
		"keep\ttab":      "keep\ttab",
		"":               "",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}
