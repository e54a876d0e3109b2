// Copyright 2026 © The Varlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the operation catalog over the Model Context
// Protocol. It wraps the mcp-go server and adapts dispatcher results
// into protocol tool results, publishes the insight memo as a readable
// resource, and serves the summarize-notes prompt.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jllopis/varlog/pkg/dispatcher"
	"github.com/jllopis/varlog/pkg/insights"
)

// MemoURI is the resource URI under which the synthesized insight memo
// is published.
const MemoURI = "memo://insights"

// Server wraps the mcp-go server around a dispatcher and an insight
// aggregator.
type Server struct {
	mcpServer *server.MCPServer
	disp      *dispatcher.Dispatcher
	agg       *insights.Aggregator
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger used for protocol-level events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer builds an MCP server exposing every operation the
// dispatcher knows about as a protocol tool, plus the memo resource
// and the summarize-notes prompt. Clients are notified whenever an
// appended insight changes the memo.
func NewServer(name, version string, disp *dispatcher.Dispatcher, agg *insights.Aggregator, opts ...Option) *Server {
	s := &Server{
		disp:   disp,
		agg:    agg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
	)

	s.registerTools()
	s.registerMemoResource()
	s.registerSummarizePrompt()

	agg.OnChange(func(ctx context.Context) {
		s.notifyMemoUpdated(ctx)
	})

	return s
}

func (s *Server) registerTools() {
	for _, tool := range s.disp.Tools() {
		name := tool.Name
		s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			text, isError := s.disp.DispatchText(ctx, name, args)
			if isError {
				return mcp.NewToolResultError(text), nil
			}
			return mcp.NewToolResultText(text), nil
		})
	}
}

func (s *Server) registerMemoResource() {
	resource := mcp.NewResource(
		MemoURI,
		"Analysis Memo",
		mcp.WithResourceDescription("Synthesized memo of all insights recorded so far"),
		mcp.WithMIMEType("text/plain"),
	)
	s.mcpServer.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      MemoURI,
				MIMEType: "text/plain",
				Text:     s.agg.Synthesize(),
			},
		}, nil
	})
}

func (s *Server) registerSummarizePrompt() {
	prompt := mcp.NewPrompt(
		"summarize-notes",
		mcp.WithPromptDescription("Creates a summary of all recorded insights"),
		mcp.WithArgument("style", mcp.ArgumentDescription("Style of the summary (brief/detailed)")),
	)
	s.mcpServer.AddPrompt(prompt, func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		detail := ""
		if request.Params.Arguments["style"] == "detailed" {
			detail = " Give extensive details."
		}
		text := "Here are the current insights to summarize:" + detail + "\n\n" + s.agg.Synthesize()
		return mcp.NewGetPromptResult(
			"Summarize the recorded insights",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
			},
		), nil
	})
}

func (s *Server) notifyMemoUpdated(ctx context.Context) {
	s.mcpServer.SendNotificationToAllClients(
		"notifications/resources/updated",
		map[string]any{"uri": MemoURI},
	)
	s.logger.DebugContext(ctx, "memo resource updated", "uri", MemoURI)
}

// ServeStdio runs the server over stdin/stdout until the client
// disconnects. Logs must go to stderr so they do not corrupt message
// framing.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP runs the server as a streamable HTTP endpoint on addr.
func (s *Server) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(addr)
}
