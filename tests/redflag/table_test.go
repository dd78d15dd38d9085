package redflag

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/canonica-labs/querygate/tests/harness"
)

// TestTableExport_InvalidNames verifies non-identifier table names are refused.
// Red-Flag: Only [A-Za-z0-9_]+ names that parse as one table may be exported.
func TestTableExport_InvalidNames(t *testing.T) {
	gw := harness.Start(t)

	for _, name := range []string{
		"orders;drop",
		"orders--",
		"or ders",
		"orders'",
		"orders`",
	} {
		resp := gw.Get(t, "/table/"+url.PathEscape(name)+".csv", harness.APIKey)
		if resp.Status != http.StatusBadRequest {
			t.Fatalf("name %q: expected 400, got %d: %s", name, resp.Status, resp.Body)
		}
		if msg := errorMessage(t, resp); !strings.HasPrefix(msg, "Invalid table name") {
			t.Fatalf("name %q: unexpected message %q", name, msg)
		}
	}
}

// TestTableExport_QualifiedNamesAreNotRouted verifies dotted names never reach the resolver.
// Red-Flag: schema.table is not a table export route.
func TestTableExport_QualifiedNamesAreNotRouted(t *testing.T) {
	gw := harness.Start(t)

	resp := gw.Get(t, "/table/public.detail.csv", harness.APIKey)
	if resp.Status == http.StatusOK {
		t.Fatalf("expected refusal, got 200: %s", resp.Body)
	}
}
