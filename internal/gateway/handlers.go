package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/canonica-labs/querygate/internal/catalog"
	"github.com/canonica-labs/querygate/internal/database"
	"github.com/canonica-labs/querygate/internal/errors"
	"github.com/canonica-labs/querygate/internal/pagination"
	"github.com/canonica-labs/querygate/internal/query"
	"github.com/canonica-labs/querygate/internal/render"
	"github.com/canonica-labs/querygate/pkg/api"
	"github.com/canonica-labs/querygate/pkg/models"
)

type format string

const (
	formatJSON format = "json"
	formatCSV  format = "csv"
)

func (g *Gateway) defaultLimit(f format) int {
	if f == formatCSV {
		return g.cfg.Limits.CSVDefault
	}
	return g.cfg.Limits.JSONDefault
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}

// handleQuery serves a catalog query. A missing q selects the default key; a q that
// is present but empty is an unknown key.
func (g *Gateway) handleQuery(f format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()

		key := string(catalog.DefaultKey)
		if params.Has(api.ParamQuery) {
			key = params.Get(api.ParamQuery)
		}
		window := pagination.Normalize(params.Get(api.ParamLimit), params.Get(api.ParamOffset), g.defaultLimit(f), g.cfg.Limits.Max)

		info := infoFrom(r.Context())
		info.queryKey = key
		info.format = string(f)
		info.window = window.String()

		resolved, err := g.resolver.Resolve(query.Request{
			Key:    key,
			Window: window,
			From:   params.Get(api.ParamFrom),
			To:     params.Get(api.ParamTo),
		})
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		g.serveResolved(w, r, resolved, f)
	}
}

// handleTable exports one table as CSV.
func (g *Gateway) handleTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	params := r.URL.Query()
	window := pagination.Normalize(params.Get(api.ParamLimit), params.Get(api.ParamOffset), g.cfg.Limits.CSVDefault, g.cfg.Limits.Max)

	info := infoFrom(r.Context())
	info.table = name
	info.format = string(formatCSV)
	info.window = window.String()

	resolved, err := g.resolver.ResolveTable(name, window)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.serveResolved(w, r, resolved, formatCSV)
}

// serveResolved runs the statement and writes the result. The body is rendered in
// full before the status line so a serialization failure can still become a 500.
func (g *Gateway) serveResolved(w http.ResponseWriter, r *http.Request, resolved *query.Resolved, f format) {
	rs, err := g.execute(r.Context(), resolved)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	infoFrom(r.Context()).rows = rs.RowCount()

	var (
		buf         bytes.Buffer
		contentType string
	)
	switch f {
	case formatCSV:
		contentType = api.ContentTypeCSV
		err = render.WriteCSV(&buf, rs)
	default:
		contentType = api.ContentTypeJSON
		err = render.WriteJSON(&buf, rs)
	}
	if err != nil {
		g.writeError(w, r, errors.NewInternal(err))
		return
	}

	w.Header().Set(api.HeaderContentType, contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// execute holds one connection for the lifetime of the statement.
func (g *Gateway) execute(ctx context.Context, resolved *query.Resolved) (*database.ResultSet, error) {
	conn, err := g.db.Connect(ctx)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer conn.Close()

	rs, err := conn.Query(ctx, resolved.SQL, resolved.Args...)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("%s: %w", describe(resolved), err))
	}
	return rs, nil
}

func describe(r *query.Resolved) string {
	if r.Table != "" {
		return "table " + r.Table
	}
	return "query " + r.Key
}

// handleDBPing resolves the database host and runs a version/clock probe. Failures are
// reported with their text.
func (g *Gateway) handleDBPing(w http.ResponseWriter, r *http.Request) {
	res, err := g.db.Ping(r.Context())
	if err != nil {
		infoFrom(r.Context()).err = err
		writeJSON(w, http.StatusInternalServerError, models.DBPingResponse{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, models.DBPingResponse{OK: true, Version: res.Version, Now: res.Now})
}

func (g *Gateway) handleDebugEnv(w http.ResponseWriter, r *http.Request) {
	d := g.cfg.Database
	writeJSON(w, http.StatusOK, models.DebugEnvResponse{
		Driver:      d.Driver,
		Host:        d.Host,
		Port:        strconv.Itoa(d.Port),
		Name:        d.Name,
		User:        d.User,
		SSLMode:     d.SSLMode,
		SSLRootCert: d.SSLRootCert,
		Cluster:     d.Cluster,
		PasswordSet: d.Password != "",
	})
}
