package reflection_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mock"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
	"github.com/secmon-lab/echonotes/pkg/service/reflection"
)

func newMockClient(fn func(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error)) *mock.LLMClientMock {
	return &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mock.SessionMock{GenerateFunc: fn}, nil
		},
	}
}

func respondWith(content string) func(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return func(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
		return &gollem.Response{Texts: []string{content}}, nil
	}
}

func TestRemote_Generate(t *testing.T) {
	ctx := context.Background()
	prompt := reflection.BuildPrompt("short note")

	t.Run("uses reported token counts", func(t *testing.T) {
		var received []gollem.Input
		client := newMockClient(func(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
			received = input
			return &gollem.Response{Texts: []string{validJSON}, InputToken: 100, OutputToken: 50}, nil
		})

		remote, err := reflection.NewRemote(client, reflection.WithName("openai"), reflection.WithCostPer1K(0.5, 1.5))
		gt.NoError(t, err).Required()

		resp, err := remote.Generate(ctx, prompt, "short note", "gpt-4o-mini")
		gt.NoError(t, err).Required()
		gt.Value(t, resp.Content).Equal(validJSON)
		gt.Value(t, resp.Provider).Equal("openai")
		gt.Value(t, resp.Model).Equal("gpt-4o-mini")
		gt.Value(t, resp.Usage.PromptTokens).Equal(100)
		gt.Value(t, resp.Usage.CompletionTokens).Equal(50)
		gt.Value(t, resp.Usage.USD).Equal(0.125)
		gt.Array(t, received).Length(1)
	})

	t.Run("requests every reflection field in the response schema", func(t *testing.T) {
		var cfg gollem.SessionConfig
		client := &mock.LLMClientMock{
			NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				cfg = gollem.NewSessionConfig(options...)
				return &mock.SessionMock{GenerateFunc: respondWith(validJSON)}, nil
			},
		}
		remote, err := reflection.NewRemote(client)
		gt.NoError(t, err).Required()

		_, err = remote.Generate(ctx, prompt, "short note", "m")
		gt.NoError(t, err).Required()

		gt.Value(t, cfg.ContentType()).Equal(gollem.ContentTypeJSON)
		gt.Value(t, cfg.SystemPrompt()).Equal(prompt.System)
		schema := cfg.ResponseSchema()
		gt.Value(t, schema != nil).Equal(true)
		gt.Value(t, schema.Type).Equal(gollem.TypeObject)
		for _, name := range []string{"title", "summary", "themes", "questions", "next_thoughts", "confidence"} {
			p, ok := schema.Properties[name]
			gt.B(t, ok).True()
			gt.B(t, p.Required).True()
		}
		gt.Array(t, schema.Properties["confidence"].Enum).Equal([]string{"high", "medium", "low"})
		gt.Value(t, schema.Properties["themes"].Items.Type).Equal(gollem.TypeString)
	})

	t.Run("estimates usage when provider reports none", func(t *testing.T) {
		remote, err := reflection.NewRemote(newMockClient(respondWith(validJSON)))
		gt.NoError(t, err).Required()

		resp, err := remote.Generate(ctx, prompt, "short note", "m")
		gt.NoError(t, err).Required()
		gt.Number(t, resp.Usage.PromptTokens).Greater(0)
		gt.Number(t, resp.Usage.CompletionTokens).Greater(0)
		gt.Value(t, resp.Usage.USD).Equal(0.0)
	})

	t.Run("routes model names to their own client", func(t *testing.T) {
		var defaultCalls, cheapCalls int
		defaultClient := newMockClient(func(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
			defaultCalls++
			return &gollem.Response{Texts: []string{validJSON}}, nil
		})
		cheapClient := newMockClient(func(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
			cheapCalls++
			return &gollem.Response{Texts: []string{validJSON}}, nil
		})

		remote, err := reflection.NewRemote(defaultClient, reflection.WithModelClient("gpt-4o-mini", cheapClient))
		gt.NoError(t, err).Required()

		_, err = remote.Generate(ctx, prompt, "short note", "gpt-4o-mini")
		gt.NoError(t, err).Required()
		gt.Value(t, cheapCalls).Equal(1)
		gt.Value(t, defaultCalls).Equal(0)

		_, err = remote.Generate(ctx, prompt, "short note", "gpt-4o")
		gt.NoError(t, err).Required()
		gt.Value(t, cheapCalls).Equal(1)
		gt.Value(t, defaultCalls).Equal(1)
	})

	t.Run("JSON followed by prose still parses", func(t *testing.T) {
		remote, err := reflection.NewRemote(newMockClient(respondWith(validJSON + "\nLet me know if you need anything else.")))
		gt.NoError(t, err).Required()

		resp, err := remote.Generate(ctx, prompt, "short note", "m")
		gt.NoError(t, err).Required()
		r, ok := reflection.Parse(resp.Content)
		gt.B(t, ok).True()
		gt.Value(t, r.Title).Equal("Plan")
		gt.Value(t, r.Confidence).Equal(types.ConfidenceHigh)
	})

	t.Run("malformed provider output is rejected by Parse", func(t *testing.T) {
		cases := []string{
			`{"title":"Plan","summary":`,
			`{"title":"Plan","summary":"S","themes":[],"questions":[],"next_thoughts":[],"confidence":"sure"}`,
			"I could not produce a reflection.",
		}
		for _, c := range cases {
			remote, err := reflection.NewRemote(newMockClient(respondWith(c)))
			gt.NoError(t, err).Required()

			resp, err := remote.Generate(ctx, prompt, "short note", "m")
			gt.NoError(t, err).Required()
			_, ok := reflection.Parse(resp.Content)
			gt.B(t, ok).False()
		}
	})

	t.Run("session failure", func(t *testing.T) {
		client := &mock.LLMClientMock{
			NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				return nil, errors.New("quota exceeded")
			},
		}
		remote, err := reflection.NewRemote(client)
		gt.NoError(t, err).Required()
		_, err = remote.Generate(ctx, prompt, "short note", "m")
		gt.Error(t, err)
	})

	t.Run("generation failure", func(t *testing.T) {
		client := newMockClient(func(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
			return nil, errors.New("rate limited")
		})
		remote, err := reflection.NewRemote(client)
		gt.NoError(t, err).Required()
		_, err = remote.Generate(ctx, prompt, "short note", "m")
		gt.Error(t, err)
	})

	t.Run("empty response", func(t *testing.T) {
		client := newMockClient(func(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
			return &gollem.Response{}, nil
		})
		remote, err := reflection.NewRemote(client)
		gt.NoError(t, err).Required()
		_, err = remote.Generate(ctx, prompt, "short note", "m")
		gt.Error(t, err)
	})

	t.Run("nil client", func(t *testing.T) {
		_, err := reflection.NewRemote(nil)
		gt.Error(t, err)
	})
}
