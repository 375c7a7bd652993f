// Package mcp exposes reflection and note creation as MCP tools over stdio
package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/usecase"
	"github.com/secmon-lab/echonotes/pkg/utils/errutil"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
)

type Server struct {
	uc  *usecase.UseCases
	srv *server.MCPServer
}

type errorBody struct {
	Message string `json:"message"`
}

// result is the JSON text returned by every tool, including failed calls
type result struct {
	Data  any                       `json:"data"`
	Error *errorBody                `json:"error,omitempty"`
	Meta  model.RequestMetaSnapshot `json:"meta"`
}

func New(uc *usecase.UseCases, version string) *Server {
	s := &Server{uc: uc}
	s.srv = server.NewMCPServer("echonotes", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.srv.AddTool(mcp.NewTool("echo",
		mcp.WithDescription("Reflect a transcript into a title, summary, themes, questions and next thoughts without storing it"),
		mcp.WithString("transcript", mcp.Required(), mcp.Description("Transcript text to reflect")),
	), s.handleEcho)

	s.srv.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note from a transcript and link it to related prior notes"),
		mcp.WithString("transcript", mcp.Required(), mcp.Description("Transcript text of the note")),
		mcp.WithString("audio_reference", mcp.Description("Optional reference to the source audio")),
	), s.handleCreateNote)

	s.srv.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Get a stored note with its related notes"),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note ID")),
	), s.handleGetNote)

	return s
}

// MCPServer returns the underlying server
func (s *Server) MCPServer() *server.MCPServer {
	return s.srv
}

// ServeStdio serves MCP over stdin and stdout until the input is closed
func (s *Server) ServeStdio() error {
	if err := server.ServeStdio(s.srv); err != nil {
		return goerr.Wrap(err, "MCP stdio server failed")
	}
	return nil
}

// withRequestMeta gives every tool call its own ledger, as HTTP requests have
func withRequestMeta(ctx context.Context) (context.Context, *model.RequestMeta) {
	meta := model.NewRequestMeta(uuid.NewString())
	ctx = model.ContextWithRequestMeta(ctx, meta)
	ctx = logging.With(ctx, logging.From(ctx).With("request_id", meta.RequestID()))
	return ctx, meta
}

func toolResult(meta *model.RequestMeta, data any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(result{Data: data, Meta: meta.Snapshot()})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode tool result")
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func toolError(ctx context.Context, meta *model.RequestMeta, err error) (*mcp.CallToolResult, error) {
	msg := err.Error()
	if !errors.Is(err, usecase.ErrInvalidInput) && !errors.Is(err, usecase.ErrNoteNotFound) {
		errutil.Handle(ctx, err, "MCP tool failed")
		msg = "internal error"
	}

	raw, encErr := json.Marshal(result{Error: &errorBody{Message: msg}, Meta: meta.Snapshot()})
	if encErr != nil {
		return nil, goerr.Wrap(encErr, "failed to encode tool error")
	}
	return mcp.NewToolResultError(string(raw)), nil
}

func invalidArgument(err error, name string) error {
	return goerr.Wrap(usecase.ErrInvalidInput, err.Error(), goerr.V("argument", name))
}

func (s *Server) handleEcho(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, meta := withRequestMeta(ctx)
	transcript, err := req.RequireString("transcript")
	if err != nil {
		return toolError(ctx, meta, invalidArgument(err, "transcript"))
	}

	reflection := s.uc.Reflection.Reflect(ctx, transcript)
	return toolResult(meta, reflection.Reflection)
}

func (s *Server) handleCreateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, meta := withRequestMeta(ctx)
	transcript, err := req.RequireString("transcript")
	if err != nil {
		return toolError(ctx, meta, invalidArgument(err, "transcript"))
	}

	input := usecase.CreateNoteInput{Transcript: transcript}
	if ref := req.GetString("audio_reference", ""); ref != "" {
		input.AudioReference = &ref
	}

	note, err := s.uc.Note.CreateNote(ctx, input)
	if err != nil {
		return toolError(ctx, meta, err)
	}
	return toolResult(meta, note)
}

func (s *Server) handleGetNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, meta := withRequestMeta(ctx)
	id, err := req.RequireInt("id")
	if err != nil {
		return toolError(ctx, meta, invalidArgument(err, "id"))
	}

	note, err := s.uc.Note.GetNote(ctx, model.NoteID(id))
	if err != nil {
		return toolError(ctx, meta, err)
	}
	return toolResult(meta, note)
}
