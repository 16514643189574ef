// Package restemu serves a PostgREST-compatible table API over pgorders, enough for
// the store client to run against a local database.
package restemu

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/BearBump/LogiTrack/internal/metrics"
	"github.com/BearBump/LogiTrack/internal/storage/pgorders"
)

const maxBodyBytes = 1 << 20

var (
	errWriteForbidden = errors.New("permission denied for table")
	errBadBody        = errors.New("malformed body")
)

type Repository interface {
	Select(ctx context.Context, q pgorders.Query) ([]pgorders.Row, error)
	Insert(ctx context.Context, table string, items []pgorders.Row) ([]pgorders.Row, error)
	Update(ctx context.Context, table string, filters []pgorders.Filter, patch pgorders.Row) ([]pgorders.Row, error)
	Delete(ctx context.Context, table string, filters []pgorders.Filter) ([]pgorders.Row, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	repo   Repository
	secret []byte
}

func New(repo Repository, jwtSecret string) *Server {
	return &Server{repo: repo, secret: []byte(jwtSecret)}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/rest/v1", func(r chi.Router) {
		r.Use(countRequests)
		r.Use(s.requireKey)

		r.Get("/", s.handleTables)
		r.Get("/{table}", s.handleSelect)

		r.Group(func(r chi.Router) {
			r.Use(requireWrite)
			r.Post("/{table}", s.handleInsert)
			r.Patch("/{table}", s.handleUpdate)
			r.Delete("/{table}", s.handleDelete)
		})
	})

	return r
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		// параметры маршрута появляются только после роутинга
		table := chi.URLParam(r, "table")
		metrics.EmulatorRequestsTotal.WithLabelValues(table, r.Method, strconv.Itoa(ww.Status())).Inc()
	})
}

func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, err := s.authenticate(r)
		if err != nil {
			slog.Warn("emulator rejected key", "method", r.Method, "path", r.URL.Path, "error", err.Error())
			s.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withRole(r.Context(), role)))
	})
}

func requireWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := roleFrom(r.Context())
		if !role.canWrite() {
			err := errors.Wrapf(errWriteForbidden, "role %s", role)
			status, code := statusOf(err)
			writeError(w, status, code, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.repo.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"tables": pgorders.Tables()})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(chi.URLParam(r, "table"), r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rows, err := s.repo.Select(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	items, err := decodeRows(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rows, err := s.repo.Insert(r.Context(), chi.URLParam(r, "table"), items)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, http.StatusCreated, rows)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(chi.URLParam(r, "table"), r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := decodeRows(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(items) != 1 {
		s.fail(w, r, errors.Wrap(errBadBody, "patch expects one object"))
		return
	}
	rows, err := s.repo.Update(r.Context(), q.Table, q.Filters, items[0])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, http.StatusNoContent, rows)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(chi.URLParam(r, "table"), r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rows, err := s.repo.Delete(r.Context(), q.Table, q.Filters)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, http.StatusNoContent, rows)
}

// respond writes the affected rows only when the client asked for them with Prefer.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, withBody, withoutBody int, rows []pgorders.Row) {
	if returnRepresentation(r.Header.Get("Prefer")) {
		writeJSON(w, withBody, nonNil(rows))
		return
	}
	w.WriteHeader(withoutBody)
}

// decodeRows accepts a single object or an array of objects.
func decodeRows(w http.ResponseWriter, r *http.Request) ([]pgorders.Row, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, errors.Wrap(errBadBody, err.Error())
	}
	switch v := body.(type) {
	case map[string]any:
		return []pgorders.Row{v}, nil
	case []any:
		out := make([]pgorders.Row, 0, len(v))
		for _, it := range v {
			m, ok := it.(map[string]any)
			if !ok {
				return nil, errors.Wrap(errBadBody, "array items must be objects")
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, errors.Wrap(errBadBody, "expected object or array")
	}
}

func nonNil(rows []pgorders.Row) []pgorders.Row {
	if rows == nil {
		return []pgorders.Row{}
	}
	return rows
}
