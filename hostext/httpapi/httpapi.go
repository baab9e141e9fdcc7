// Package httpapi exposes Rill script execution over HTTP: a POST /run
// endpoint that parses and runs a script body against a fresh context,
// returning its final value and bound variables as JSON, plus a GET
// /health liveness check.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rill-lang/rill/internal/rill/value"
	"github.com/rill-lang/rill/pkg/rill"
)

// Server wraps a chi.Router configured with the run endpoint and a
// recovery/logging middleware chain, mirroring the teacher's router
// composition.
type Server struct {
	mux         chi.Router
	globalNames []string
}

// NewServer builds a Server. globalNames lists the variable names whose
// final bindings should be echoed back in a run response's "variables"
// field.
func NewServer(globalNames []string) *Server {
	s := &Server{mux: chi.NewRouter(), globalNames: globalNames}
	s.mux.Use(middleware.Logger)
	s.mux.Use(middleware.Recoverer)
	s.mux.Post("/run", s.handleRun)
	s.mux.Get("/health", s.handleHealth)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type runRequest struct {
	Source    string                 `json:"source"`
	Variables map[string]interface{} `json:"variables"`
	TimeoutMs int                    `json:"timeout_ms"`
}

type runResponse struct {
	Value     interface{}            `json:"value"`
	Variables map[string]interface{} `json:"variables"`
}

type errorResponse struct {
	Error   string `json:"error"`
	ID      string `json:"id,omitempty"`
	HelpURL string `json:"help_url,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	script, err := rill.Parse(req.Source)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	vars := make(map[string]value.Value, len(req.Variables))
	for k, v := range req.Variables {
		vars[k] = fromJSON(v)
	}
	ctx := rill.CreateContext(rill.Options{Variables: vars})

	result, err := rill.Execute(script, ctx)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	bound := ctx.Variables(s.globalNames)
	jsonVars := make(map[string]interface{}, len(bound))
	for k, v := range bound {
		jsonVars[k] = toJSON(v)
	}

	writeJSON(w, http.StatusOK, runResponse{Value: toJSON(result.Value), Variables: jsonVars})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	if re, ok := rill.AsStructuredError(err); ok {
		resp.ID = re.ID
		resp.HelpURL = re.HelpURL()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func toJSON(v value.Value) interface{} {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.AsBool()
	case value.KindNumber:
		return v.AsNumber()
	case value.KindString:
		return v.AsString()
	case value.KindTuple:
		elems := v.AsTuple()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			out[i] = toJSON(e)
		}
		return out
	case value.KindDict:
		d := v.AsDict()
		out := make(map[string]interface{}, d.Len())
		for _, k := range d.Keys() {
			ev, _ := d.Get(k)
			out[k] = toJSON(ev)
		}
		return out
	default:
		return v.String()
	}
}

func fromJSON(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(t)
	case float64:
		return value.Number(t)
	case string:
		return value.String(t)
	case []interface{}:
		out := make([]value.Value, len(t))
		for i, e := range t {
			out[i] = fromJSON(e)
		}
		return value.Tuple(out)
	case map[string]interface{}:
		d := value.NewDict()
		for k, ev := range t {
			d.Set(k, fromJSON(ev))
		}
		return value.DictValue(d)
	default:
		return value.Null
	}
}
