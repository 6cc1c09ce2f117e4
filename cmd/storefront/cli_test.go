package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Oat Milk","price":"3.50","stock":4,"category":{"id":2,"name":"Dairy Free"}},{"id":2,"name":"Rye Bread","price":"5","stock":0,"category_id":9}]`))
	})
	mux.HandleFunc("/api/category", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":2,"name":"Dairy Free"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	srv := newTestBackend(t)
	t.Setenv("STOREFRONT_API_URL", srv.URL+"/api")
	t.Setenv("STOREFRONT_STORE_DRIVER", "memory")
	t.Setenv("STOREFRONT_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestProductsCommandListsCatalog(t *testing.T) {
	out, err := runCLI(t, "products")
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if !strings.Contains(out, "Oat Milk") || !strings.Contains(out, "Dairy Free") {
		t.Fatalf("expected product row with category, got:\n%s", out)
	}
	if !strings.Contains(out, "Uncategorized") {
		t.Fatalf("expected fallback category label, got:\n%s", out)
	}
	if !strings.Contains(out, "3.50") {
		t.Fatalf("expected formatted price, got:\n%s", out)
	}
}

func TestPrivateCommandsRequireSignIn(t *testing.T) {
	for _, args := range [][]string{{"orders"}, {"checkout"}, {"address"}} {
		_, err := runCLI(t, args...)
		if !errors.Is(err, errNotSignedIn) {
			t.Fatalf("%v: expected errNotSignedIn, got %v", args, err)
		}
	}
}

func TestMigrateValidateRunsWithoutConfig(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "")

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"migrate", "validate"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("migrate validate: %v", err)
	}
	if !strings.Contains(out.String(), "migration validation passed") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("12", "product id"); err != nil || id != 12 {
		t.Fatalf("expected 12, got %d (%v)", id, err)
	}
	for _, raw := range []string{"", "abc", "0", "-3"} {
		if _, err := parseID(raw, "product id"); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
