package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonica-labs/querygate/internal/errors"
)

func TestFetchRequest_Path(t *testing.T) {
	tests := []struct {
		name string
		req  FetchRequest
		want string
	}{
		{name: "gateway default", req: FetchRequest{}, want: "/query"},
		{name: "key", req: FetchRequest{Key: "tables"}, want: "/query?q=tables"},
		{name: "csv", req: FetchRequest{Key: "detail_all", CSV: true, Limit: "all"}, want: "/query.csv?limit=all&q=detail_all"},
		{
			name: "range",
			req:  FetchRequest{Key: "detail_range", From: "2025-01-01", To: "2025-02-01", Limit: "10", Offset: 20},
			want: "/query?from=2025-01-01&limit=10&offset=20&q=detail_range&to=2025-02-01",
		},
		{name: "table ignores key and range", req: FetchRequest{Key: "now", Table: "orders", From: "x", Limit: "5"}, want: "/table/orders.csv?limit=5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.path())
		})
	}
}

func TestGatewayClient_FetchCopiesBody(t *testing.T) {
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Custom-Key")
		gotPath = r.URL.RequestURI()
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte("id,name\r\n1,a\r\n"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	n, err := NewGatewayClient(srv.URL+"/", "secret", "X-Custom-Key").
		Fetch(context.Background(), FetchRequest{Table: "orders", CSV: true}, &buf)
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "/table/orders.csv", gotPath)
	assert.Equal(t, "id,name\r\n1,a\r\n", buf.String())
	assert.Equal(t, int64(buf.Len()), n)
}

// Red-Flag: gateway error bodies keep their message and map onto the matching kind.
func TestGatewayClient_FetchErrors(t *testing.T) {
	tests := []struct {
		status int
		body   string
		kind   errors.Kind
		msg    string
	}{
		{http.StatusBadRequest, `{"error":"Query not allowed. Use one of: now, tables"}`, errors.KindBadRequest, "Query not allowed. Use one of: now, tables"},
		{http.StatusUnauthorized, `{"error":"Unauthorized"}`, errors.KindUnauthorized, "Unauthorized"},
		{http.StatusInternalServerError, `{"error":"Internal Server Error"}`, errors.KindInternal, "Internal Server Error"},
		{http.StatusBadGateway, `upstream down`, errors.KindInternal, "gateway error: 502 - upstream down"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var buf bytes.Buffer
			_, err := NewGatewayClient(srv.URL, "k", "").Fetch(context.Background(), FetchRequest{Key: "x"}, &buf)
			require.Error(t, err)

			var ge *errors.GatewayError
			require.True(t, stderrors.As(err, &ge))
			assert.Equal(t, tt.kind, ge.Kind)
			assert.Equal(t, tt.msg, ge.Message)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestGatewayClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewGatewayClient(url, "", "").CheckHealth(context.Background())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrGatewayUnavailable))

	_, err = NewGatewayClient("", "", "").CheckHealth(context.Background())
	assert.True(t, stderrors.Is(err, ErrGatewayUnavailable))
}

func TestGatewayClient_HealthAndPingSkipAuth(t *testing.T) {
	var sawKey bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "" {
			sawKey = true
		}
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case "/dbping":
			_, _ = w.Write([]byte(`{"ok":true,"version":"CockroachDB CCL v23.1","now":"2025-01-01T00:00:00Z"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewGatewayClient(srv.URL, "secret", "")

	healthy, err := client.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.True(t, healthy)

	ping, err := client.DBPing(context.Background())
	require.NoError(t, err)
	assert.True(t, ping.OK)
	assert.Equal(t, "CockroachDB CCL v23.1", ping.Version)

	assert.False(t, sawKey)
}
