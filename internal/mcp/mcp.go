// Package mcp implements the Model Context Protocol surface of the PDA
// kernel. Natural-language-to-DSL translation happens outside the system;
// this server is how an external translator (typically an MCP-compatible
// AI agent) hands finished statements to the kernel and reads back typed
// outcomes.
package mcp

import (
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ssbking/personal-digital-authority/internal/kernel"
)

// Server wraps the MCP server around a wired kernel.
type Server struct {
	mcpServer *mcpserver.MCPServer
	kernel    *kernel.Kernel
	logger    *slog.Logger
}

// New creates and configures the MCP server with all tools registered.
func New(k *kernel.Kernel, logger *slog.Logger, version string) *Server {
	s := &Server{kernel: k, logger: logger}

	s.mcpServer = mcpserver.NewMCPServer(
		"pda",
		version,
		mcpserver.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the MCP protocol over stdin/stdout, the natural
// transport for a local-first deployment.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcpServer)
}
