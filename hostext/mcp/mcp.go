// Package mcp exposes a Rill execution endpoint over a JSON-RPC 2.0
// connection carried on a WebSocket, in the shape the Model Context
// Protocol's tool-call transport expects: a client connects, calls
// "tools/list" to discover what's available, then "tools/call" to invoke
// one.
package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.lsp.dev/jsonrpc2"

	"github.com/rill-lang/rill/internal/rill/value"
	"github.com/rill-lang/rill/pkg/rill"
)

// Tool is one callable exposed over the connection. Params/Result are
// plain JSON, not Rill values, so a tool can be implemented without
// importing the interpreter at all.
type Tool struct {
	Name        string
	Description string
	Handler     func(ctx context.Context, params json.RawMessage) (interface{}, error)
}

// Server holds the tool registry and upgrades incoming HTTP connections
// to WebSocket-carried JSON-RPC.
type Server struct {
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	tools map[string]*Tool
}

func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		tools:    map[string]*Tool{},
	}
}

// RegisterTool installs a tool under its own name.
func (s *Server) RegisterTool(t *Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[t.Name] = t
}

// RegisterExecuteTool installs a tool named "execute_rill" that parses and
// runs a Rill script against a fresh context seeded with the variables
// from the call's params, returning its final value and the values bound
// to the given names.
func (s *Server) RegisterExecuteTool(names []string) {
	s.RegisterTool(&Tool{
		Name:        "execute_rill",
		Description: "parse and execute a Rill script, returning its final value",
		Handler: func(_ context.Context, params json.RawMessage) (interface{}, error) {
			var req struct {
				Source    string                 `json:"source"`
				Variables map[string]interface{} `json:"variables"`
			}
			if err := json.Unmarshal(params, &req); err != nil {
				return nil, err
			}
			script, err := rill.Parse(req.Source)
			if err != nil {
				return nil, err
			}
			vars := map[string]value.Value{}
			for k, v := range req.Variables {
				vars[k] = fromJSON(v)
			}
			ctx := rill.CreateContext(rill.Options{Variables: vars})
			res, err := rill.Execute(script, ctx)
			if err != nil {
				return nil, err
			}
			bound := ctx.Variables(names)
			jsonVars := make(map[string]interface{}, len(bound))
			for k, v := range bound {
				jsonVars[k] = toJSON(v)
			}
			return map[string]interface{}{
				"value":     toJSON(res.Value),
				"variables": jsonVars,
			}, nil
		},
	})
}

// ServeHTTP upgrades the request to a WebSocket and serves JSON-RPC over
// it until the connection closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	stream := jsonrpc2.NewStream(&wsReadWriteCloser{conn: conn})
	rpcConn := jsonrpc2.NewConn(stream)
	rpcConn.Go(r.Context(), s.handler())
	<-rpcConn.Done()
}

func (s *Server) handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case "tools/list":
			return reply(ctx, s.listTools(), nil)
		case "tools/call":
			return s.callTool(ctx, reply, req)
		default:
			return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
		}
	}
}

func (s *Server) listTools() []map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]map[string]string, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, map[string]string{"name": t.Name, "description": t.Description})
	}
	return out
}

func (s *Server) callTool(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var call struct {
		Name   string          `json:"name"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(req.Params(), &call); err != nil {
		return reply(ctx, nil, &jsonrpc2.Error{Code: jsonrpc2.InvalidParams, Message: err.Error()})
	}

	s.mu.RLock()
	tool, ok := s.tools[call.Name]
	s.mu.RUnlock()
	if !ok {
		return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
	}

	result, err := tool.Handler(ctx, call.Params)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, result, nil)
}

// wsReadWriteCloser adapts a *websocket.Conn's message-oriented API to
// the byte-stream io.ReadWriteCloser jsonrpc2.NewStream expects.
type wsReadWriteCloser struct {
	conn *websocket.Conn
	buf  []byte
}

func (w *wsReadWriteCloser) Read(p []byte) (int, error) {
	for len(w.buf) == 0 {
		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		w.buf = msg
	}
	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

func (w *wsReadWriteCloser) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsReadWriteCloser) Close() error { return w.conn.Close() }

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
