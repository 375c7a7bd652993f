package usecase

import (
	"time"

	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
	"github.com/secmon-lab/echonotes/pkg/service/audiostore"
	"github.com/secmon-lab/echonotes/pkg/service/embedding"
	"github.com/secmon-lab/echonotes/pkg/service/provider"
	"github.com/secmon-lab/echonotes/pkg/service/reflection"
)

// DefaultAppName is recorded in cost ledger rows unless overridden
const DefaultAppName = "echo-notes-api"

type (
	ReflectionCascade    = provider.Cascade[interfaces.ReflectionProvider]
	EmbeddingCascade     = provider.Cascade[interfaces.EmbeddingProvider]
	TranscriptionCascade = provider.Cascade[interfaces.TranscriptionProvider]
)

type UseCases struct {
	repo       interfaces.Repository
	appName    string
	router     model.ModelRouter
	audioStore interfaces.AudioStore
	now        func() time.Time

	reflectionPref       types.ProviderPreference
	reflectionCascade    *ReflectionCascade
	embeddingPref        types.ProviderPreference
	embeddingCascade     *EmbeddingCascade
	transcriptionPref    types.ProviderPreference
	transcriptionCascade *TranscriptionCascade

	Reflection    *ReflectionUseCase
	Embedding     *EmbeddingUseCase
	Transcription *TranscriptionUseCase
	Note          *NoteUseCase
	Cost          *CostUseCase
}

type Option func(*UseCases)

// WithAppName sets the application name stored in cost ledger rows
func WithAppName(name string) Option {
	return func(uc *UseCases) {
		uc.appName = name
	}
}

// WithModelRouter sets the models used for each reflection tier
func WithModelRouter(router model.ModelRouter) Option {
	return func(uc *UseCases) {
		uc.router = router
	}
}

// WithReflection sets the reflection preference and its candidate providers
func WithReflection(pref types.ProviderPreference, cascade *ReflectionCascade) Option {
	return func(uc *UseCases) {
		uc.reflectionPref = pref
		uc.reflectionCascade = cascade
	}
}

// WithEmbedding sets the embedding preference and its candidate providers
func WithEmbedding(pref types.ProviderPreference, cascade *EmbeddingCascade) Option {
	return func(uc *UseCases) {
		uc.embeddingPref = pref
		uc.embeddingCascade = cascade
	}
}

// WithTranscription sets the transcription preference and its candidate providers
func WithTranscription(pref types.ProviderPreference, cascade *TranscriptionCascade) Option {
	return func(uc *UseCases) {
		uc.transcriptionPref = pref
		uc.transcriptionCascade = cascade
	}
}

// WithAudioStore sets where uploaded audio of audio notes is kept
func WithAudioStore(store interfaces.AudioStore) Option {
	return func(uc *UseCases) {
		uc.audioStore = store
	}
}

// WithClock replaces the timestamp source
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:    repo,
		appName: DefaultAppName,
		router: model.ModelRouter{
			DefaultModel: "echo-default-v1",
			CheapModel:   "echo-cheap-v1",
		},
		audioStore:        audiostore.None{},
		now:               func() time.Time { return time.Now().UTC() },
		reflectionPref:    types.ProviderPreferenceAuto,
		embeddingPref:     types.ProviderPreferenceAuto,
		transcriptionPref: types.ProviderPreferenceAuto,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.reflectionCascade == nil {
		uc.reflectionCascade = LocalReflectionCascade(nil)
	}
	if uc.embeddingCascade == nil {
		uc.embeddingCascade = LocalEmbeddingCascade(embedding.DefaultDimension, nil)
	}
	if uc.transcriptionCascade == nil {
		uc.transcriptionCascade = TranscriptionCascadeOf(nil, nil)
	}

	track := &tracker{repo: repo, appName: uc.appName, now: uc.now}

	uc.Reflection = &ReflectionUseCase{
		repo:    repo,
		router:  uc.router,
		pref:    uc.reflectionPref,
		cascade: uc.reflectionCascade,
		tracker: track,
		now:     uc.now,
	}
	uc.Embedding = &EmbeddingUseCase{
		pref:    uc.embeddingPref,
		cascade: uc.embeddingCascade,
		tracker: track,
	}
	uc.Transcription = &TranscriptionUseCase{
		pref:    uc.transcriptionPref,
		cascade: uc.transcriptionCascade,
	}
	uc.Note = &NoteUseCase{
		repo:          repo,
		reflection:    uc.Reflection,
		embedding:     uc.Embedding,
		transcription: uc.Transcription,
		audioStore:    uc.audioStore,
		now:           uc.now,
	}
	uc.Cost = &CostUseCase{repo: repo}

	return uc
}

// LocalReflectionCascade builds the reflection candidates. remote may be nil.
// The local heuristic engine is both the local option and the fallback.
func LocalReflectionCascade(remote *provider.Option[interfaces.ReflectionProvider]) *ReflectionCascade {
	local := &provider.Option[interfaces.ReflectionProvider]{
		Name:  reflection.LocalProviderName,
		Build: provider.Static[interfaces.ReflectionProvider](reflection.NewLocal()),
	}
	return &ReflectionCascade{
		Capability: "reflection",
		Local:      local,
		Remote:     remote,
		AutoOrder:  []types.ProviderPreference{types.ProviderPreferenceRemote, types.ProviderPreferenceLocal},
		Fallback:   local,
	}
}

// LocalEmbeddingCascade builds the embedding candidates. remote may be nil.
// The hash embedding engine is both the local option and the fallback.
func LocalEmbeddingCascade(dimension int, remote *provider.Option[interfaces.EmbeddingProvider]) *EmbeddingCascade {
	local := &provider.Option[interfaces.EmbeddingProvider]{
		Name:  embedding.LocalProviderName,
		Build: provider.Static[interfaces.EmbeddingProvider](embedding.NewLocal(dimension)),
	}
	return &EmbeddingCascade{
		Capability: "embedding",
		Local:      local,
		Remote:     remote,
		AutoOrder:  []types.ProviderPreference{types.ProviderPreferenceRemote, types.ProviderPreferenceLocal},
		Fallback:   local,
	}
}

// TranscriptionCascadeOf builds the transcription candidates. Either option may be
// nil. Transcription has no unconditional fallback.
func TranscriptionCascadeOf(local, remote *provider.Option[interfaces.TranscriptionProvider]) *TranscriptionCascade {
	return &TranscriptionCascade{
		Capability: "transcription",
		Local:      local,
		Remote:     remote,
		AutoOrder:  []types.ProviderPreference{types.ProviderPreferenceLocal, types.ProviderPreferenceRemote},
	}
}
