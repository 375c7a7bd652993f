package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mark3labs/mcp-go/mcp"
	mcpctrl "github.com/secmon-lab/echonotes/pkg/controller/mcp"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/repository/memory"
	"github.com/secmon-lab/echonotes/pkg/usecase"
)

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	gt.Array(t, res.Content).Length(1).Required()
	text, ok := res.Content[0].(mcp.TextContent)
	gt.Bool(t, ok).True()
	return text.Text
}

type toolResult[T any] struct {
	Data  T `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Meta model.RequestMetaSnapshot `json:"meta"`
}

func requireToolError(t *testing.T, res *mcp.CallToolResult, contains string) {
	t.Helper()
	gt.Bool(t, res.IsError).True()
	out := decode[any](t, res)
	gt.Value(t, out.Error != nil).Equal(true).Required()
	gt.String(t, out.Error.Message).Contains(contains)
	gt.Value(t, out.Data == nil).Equal(true)
	gt.Value(t, out.Meta.RequestID).NotEqual("")
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) toolResult[T] {
	t.Helper()
	var out toolResult[T]
	gt.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out)).Required()
	return out
}

func TestTools(t *testing.T) {
	ctx := context.Background()
	srv := mcpctrl.New(usecase.New(memory.New()), "test")

	t.Run("echo", func(t *testing.T) {
		res, err := srv.HandleEcho(ctx, callRequest("echo", map[string]any{"transcript": ""}))
		gt.NoError(t, err).Required()
		gt.Bool(t, res.IsError).False()

		out := decode[model.Reflection](t, res)
		gt.Value(t, out.Data.Title).Equal("Empty transcript")
		gt.Value(t, out.Meta.RequestID).NotEqual("")
		gt.Array(t, out.Meta.Warnings).Length(1)
	})

	t.Run("echo requires transcript", func(t *testing.T) {
		res, err := srv.HandleEcho(ctx, callRequest("echo", map[string]any{}))
		gt.NoError(t, err).Required()
		requireToolError(t, res, "transcript")
	})

	var noteID model.NoteID
	t.Run("create_note", func(t *testing.T) {
		res, err := srv.HandleCreateNote(ctx, callRequest("create_note", map[string]any{
			"transcript":      "Sketch the migration plan for the analytics database",
			"audio_reference": "gs://bucket/memo.m4a",
		}))
		gt.NoError(t, err).Required()
		gt.Bool(t, res.IsError).False()

		out := decode[model.Note](t, res)
		gt.Value(t, *out.Data.AudioReference).Equal("gs://bucket/memo.m4a")
		gt.Number(t, out.Meta.Cost.PromptTokens).Greater(0)
		noteID = out.Data.ID
	})

	t.Run("create_note rejects blank transcript", func(t *testing.T) {
		res, err := srv.HandleCreateNote(ctx, callRequest("create_note", map[string]any{"transcript": "   "}))
		gt.NoError(t, err).Required()
		requireToolError(t, res, "transcript is required")
	})

	t.Run("get_note", func(t *testing.T) {
		res, err := srv.HandleGetNote(ctx, callRequest("get_note", map[string]any{"id": float64(noteID)}))
		gt.NoError(t, err).Required()
		gt.Bool(t, res.IsError).False()

		out := decode[model.Note](t, res)
		gt.Value(t, out.Data.ID).Equal(noteID)
	})

	t.Run("get_note missing", func(t *testing.T) {
		res, err := srv.HandleGetNote(ctx, callRequest("get_note", map[string]any{"id": float64(9999)}))
		gt.NoError(t, err).Required()
		requireToolError(t, res, "not found")
	})

	t.Run("get_note requires id", func(t *testing.T) {
		res, err := srv.HandleGetNote(ctx, callRequest("get_note", map[string]any{}))
		gt.NoError(t, err).Required()
		requireToolError(t, res, "id")
	})
}
