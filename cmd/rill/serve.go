package main

import (
	"fmt"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rill-lang/rill/internal/cli/config"
	"github.com/rill-lang/rill/hostext/httpapi"
	"github.com/rill-lang/rill/hostext/mcp"
)

var (
	serveAddr string
	serveMCP  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a script-execution server",
	Long: `Serve exposes POST /run and GET /health over HTTP (hostext/httpapi).
With --mcp it instead serves an "execute_rill" tool over a WebSocket-carried
JSON-RPC 2.0 connection (hostext/mcp), in the shape a Model Context Protocol
client expects.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "address to listen on (overrides rill.yml server.host/port)")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "serve the MCP tool-call transport instead of the HTTP API")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, _ := config.Load()

	addr := serveAddr
	if addr == "" && cfg != nil {
		addr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if addr == "" {
		addr = "localhost:8080"
	}

	var globals []string
	if cfg != nil {
		globals = cfg.Server.Globals
	}

	if serveMCP {
		s := mcp.NewServer()
		s.RegisterExecuteTool(globals)
		color.New(color.FgGreen, color.Bold).Printf("serving MCP execute_rill tool on ws://%s\n", addr)
		return http.ListenAndServe(addr, s)
	}

	s := httpapi.NewServer(globals)
	color.New(color.FgGreen, color.Bold).Printf("serving POST /run and GET /health on http://%s\n", addr)
	return http.ListenAndServe(addr, s)
}
