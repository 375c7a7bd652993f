package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/repository/memory"
	"github.com/secmon-lab/echonotes/pkg/service/provider"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// confidentTranscript has more than 40 words and no hedge markers
const confidentTranscript = "The team finished the storage migration on Tuesday and every service moved to the new cluster without downtime. " +
	"We measured latency before and after the cutover and the numbers improved across the board. " +
	"Next week we will retire the old nodes and update the runbooks for the on-call rotation."

const highConfidenceJSON = `{"title":"Storage migration finished","summary":"The migration completed without downtime.",` +
	`"themes":["migration","latency"],"questions":["What should the runbooks cover?"],` +
	`"next_thoughts":["Possible area to expand: retiring old nodes."],"confidence":"high"}`

func newRequestContext(requestID string) (context.Context, *model.RequestMeta) {
	meta := model.NewRequestMeta(requestID)
	return model.ContextWithRequestMeta(context.Background(), meta), meta
}

type mockReflectionProvider struct {
	content string
	err     error
	calls   int
}

func (m *mockReflectionProvider) Generate(ctx context.Context, prompt model.Prompt, transcript, modelName string) (*model.LLMResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &model.LLMResponse{
		Content:  m.content,
		Provider: "mock-llm",
		Model:    modelName,
		Usage:    model.LLMUsage{PromptTokens: 120, CompletionTokens: 40, USD: 0.0012},
	}, nil
}

func remoteReflection(p interfaces.ReflectionProvider) *provider.Option[interfaces.ReflectionProvider] {
	return &provider.Option[interfaces.ReflectionProvider]{Name: "mock-llm", Build: provider.Static(p)}
}

func missingReflection() *provider.Option[interfaces.ReflectionProvider] {
	return &provider.Option[interfaces.ReflectionProvider]{
		Name:  "mock-llm",
		Build: provider.Unavailable[interfaces.ReflectionProvider]("missing API key"),
	}
}

type mockEmbeddingProvider struct {
	vector model.Embedding
	err    error
}

func (m *mockEmbeddingProvider) Embed(ctx context.Context, text string) (*model.EmbeddingResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &model.EmbeddingResult{
		Vector:   m.vector,
		Provider: "mock-embedding",
		Model:    "mock-embedding-v1",
		Usage:    model.LLMUsage{PromptTokens: 10, USD: 0.00001},
	}, nil
}

func remoteEmbedding(p interfaces.EmbeddingProvider) *provider.Option[interfaces.EmbeddingProvider] {
	return &provider.Option[interfaces.EmbeddingProvider]{Name: "mock-embedding", Build: provider.Static(p)}
}

type mockTranscriptionProvider struct {
	transcript *model.Transcript
	err        error
	calls      int
}

func (m *mockTranscriptionProvider) Transcribe(ctx context.Context, audio *interfaces.AudioInput) (*model.Transcript, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.transcript, nil
}

// flakyTranscriptionProvider fails the first failures calls and succeeds afterwards
type flakyTranscriptionProvider struct {
	failures   int
	transcript *model.Transcript
	calls      int
}

func (m *flakyTranscriptionProvider) Transcribe(ctx context.Context, audio *interfaces.AudioInput) (*model.Transcript, error) {
	m.calls++
	if m.calls <= m.failures {
		return nil, errors.New("transient failure")
	}
	return m.transcript, nil
}

func transcriptionOption(name string, p interfaces.TranscriptionProvider) *provider.Option[interfaces.TranscriptionProvider] {
	return &provider.Option[interfaces.TranscriptionProvider]{Name: name, Build: provider.Static(p)}
}

var errStore = errors.New("disk I/O error")

// failingRepo wraps the memory repository and fails selected operations
type failingRepo struct {
	*memory.Memory
	costErr  error
	eventErr error
	txErr    error
}

func (r *failingRepo) CostLedger() interfaces.CostLedgerRepository {
	if r.costErr != nil {
		return failingCostLedger{err: r.costErr}
	}
	return r.Memory.CostLedger()
}

func (r *failingRepo) ReflectionEvent() interfaces.ReflectionEventRepository {
	if r.eventErr != nil {
		return failingReflectionEvent{err: r.eventErr}
	}
	return r.Memory.ReflectionEvent()
}

func (r *failingRepo) RunInTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.NoteTx) error) error {
	if r.txErr != nil {
		return r.txErr
	}
	return r.Memory.RunInTx(ctx, fn)
}

type failingCostLedger struct{ err error }

func (f failingCostLedger) Put(ctx context.Context, entry *model.CostLedgerEntry) error {
	return f.err
}

func (f failingCostLedger) ListByRequestID(ctx context.Context, requestID string) ([]*model.CostLedgerEntry, error) {
	return nil, f.err
}

type failingReflectionEvent struct{ err error }

func (f failingReflectionEvent) Put(ctx context.Context, event *model.ReflectionEvent) error {
	return f.err
}
