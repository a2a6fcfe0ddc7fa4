package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"giftwallet/internal/config"
	apphttp "giftwallet/internal/http"
	"giftwallet/internal/log"
	"giftwallet/internal/memory"
	"giftwallet/internal/services"
)

func startAPI(t *testing.T) *config.Config {
	t.Helper()
	store, err := memory.NewSeeded(memory.DemoSeed())
	if err != nil {
		t.Fatal(err)
	}
	srv := apphttp.NewServer(":0", services.NewCardService(store, nil, services.Options{}), apphttp.Options{RateLimitPerMinute: 100})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	return &config.Config{APIBaseURL: ts.URL, APITimeout: 5 * time.Second}
}

func runCLI(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, cfg, log.Discard(), &out)
	return out.String(), err
}

func TestList(t *testing.T) {
	cfg := startAPI(t)
	out, err := runCLI(t, cfg, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"My Wallet", "3 cards in wallet", "•••• •••• •••• 7891"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestShow(t *testing.T) {
	cfg := startAPI(t)
	out, err := runCLI(t, cfg, "show", "4532")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"Card Details", "Recent Activity", "Amazon", "Starbucks"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestAddAndRemove(t *testing.T) {
	cfg := startAPI(t)

	out, err := runCLI(t, cfg, "add", "-number", "4111111111111111", "-cvv", "123", "-month", "12", "-year", "26", "-balance", "100.00")
	if err != nil {
		t.Fatalf("add: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Card added") || !strings.Contains(out, "4 cards in wallet") {
		t.Errorf("add output:\n%s", out)
	}

	out, err = runCLI(t, cfg, "remove", "1111")
	if err != nil {
		t.Fatalf("remove: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Card removed") || !strings.Contains(out, "3 cards in wallet") {
		t.Errorf("remove output:\n%s", out)
	}
}

func TestAddInvalid(t *testing.T) {
	cfg := startAPI(t)
	out, err := runCLI(t, cfg, "add", "-number", "123", "-cvv", "123", "-month", "12", "-year", "26", "-balance", "1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out, "cardNumber: Card number must be 16 digits") {
		t.Errorf("output:\n%s", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	cfg := startAPI(t)
	if _, err := runCLI(t, cfg, "frobnicate"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := runCLI(t, cfg, "show", "0000"); err == nil {
		t.Fatal("expected no-match error")
	}
}
