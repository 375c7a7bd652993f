package provider_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
	"github.com/secmon-lab/echonotes/pkg/service/provider"
)

type fakeProvider struct{ name string }

func newReflectionCascade(remoteAvailable bool) *provider.Cascade[*fakeProvider] {
	local := &fakeProvider{name: "local_heuristic"}
	remote := &provider.Option[*fakeProvider]{Name: "gollem", Build: provider.Unavailable[*fakeProvider]("missing API key")}
	if remoteAvailable {
		remote.Build = provider.Static(&fakeProvider{name: "gollem"})
	}
	localOpt := &provider.Option[*fakeProvider]{Name: "local_heuristic", Build: provider.Static(local)}

	return &provider.Cascade[*fakeProvider]{
		Capability: "reflection",
		Local:      localOpt,
		Remote:     remote,
		AutoOrder:  []types.ProviderPreference{types.ProviderPreferenceRemote, types.ProviderPreferenceLocal},
		Fallback:   localOpt,
	}
}

func newTranscriptionCascade(localAvailable, remoteAvailable bool) *provider.Cascade[*fakeProvider] {
	local := &provider.Option[*fakeProvider]{Name: "whisper_local", Build: provider.Unavailable[*fakeProvider]("whisper binary not found")}
	if localAvailable {
		local.Build = provider.Static(&fakeProvider{name: "whisper_local"})
	}
	remote := &provider.Option[*fakeProvider]{Name: "whisper_openai_api", Build: provider.Unavailable[*fakeProvider]("missing API key")}
	if remoteAvailable {
		remote.Build = provider.Static(&fakeProvider{name: "whisper_openai_api"})
	}

	return &provider.Cascade[*fakeProvider]{
		Capability: "transcription",
		Local:      local,
		Remote:     remote,
		AutoOrder:  []types.ProviderPreference{types.ProviderPreferenceLocal, types.ProviderPreferenceRemote},
	}
}

func TestCascade_Reflection(t *testing.T) {
	t.Run("auto prefers remote when available", func(t *testing.T) {
		res := newReflectionCascade(true).Resolve("auto")
		gt.B(t, res.Available).True()
		gt.Value(t, res.Name).Equal("gollem")
		gt.Value(t, res.Warning).Equal("")
	})

	t.Run("auto falls to local without warning", func(t *testing.T) {
		res := newReflectionCascade(false).Resolve("auto")
		gt.Value(t, res.Name).Equal("local_heuristic")
		gt.Value(t, res.Warning).Equal("")
	})

	t.Run("explicit local", func(t *testing.T) {
		res := newReflectionCascade(true).Resolve("LOCAL")
		gt.Value(t, res.Name).Equal("local_heuristic")
		gt.Value(t, res.Warning).Equal("")
	})

	t.Run("explicit remote without credential warns once", func(t *testing.T) {
		res := newReflectionCascade(false).Resolve("openai")
		gt.B(t, res.Available).True()
		gt.Value(t, res.Name).Equal("local_heuristic")
		gt.String(t, res.Warning).Contains("unavailable")
		gt.String(t, res.Warning).Contains("missing API key")
	})

	t.Run("unknown preference warns with the value and behaves like auto", func(t *testing.T) {
		withRemote := newReflectionCascade(true).Resolve("anthropic")
		gt.Value(t, withRemote.Name).Equal("gollem")
		gt.String(t, withRemote.Warning).Contains("'anthropic'")

		withoutRemote := newReflectionCascade(false).Resolve("anthropic")
		gt.Value(t, withoutRemote.Name).Equal("local_heuristic")
		gt.String(t, withoutRemote.Warning).Contains("'anthropic'")
		gt.B(t, strings.Contains(withoutRemote.Warning, "unavailable")).False()
	})

	t.Run("fallback provider", func(t *testing.T) {
		p, name, ok := newReflectionCascade(true).FallbackProvider()
		gt.B(t, ok).True()
		gt.Value(t, name).Equal("local_heuristic")
		gt.Value(t, p.name).Equal("local_heuristic")
	})
}

func TestCascade_Transcription(t *testing.T) {
	t.Run("auto prefers local", func(t *testing.T) {
		res := newTranscriptionCascade(true, true).Resolve("auto")
		gt.Value(t, res.Name).Equal("whisper_local")
	})

	t.Run("auto uses remote when local is missing", func(t *testing.T) {
		res := newTranscriptionCascade(false, true).Resolve("auto")
		gt.Value(t, res.Name).Equal("whisper_openai_api")
		gt.Value(t, res.Warning).Equal("")
	})

	t.Run("auto with nothing available resolves to no provider", func(t *testing.T) {
		res := newTranscriptionCascade(false, false).Resolve("auto")
		gt.B(t, res.Available).False()
		gt.Value(t, res.Provider == nil).Equal(true)
		gt.Value(t, res.Warning).Equal("")
	})

	t.Run("explicit remote unavailable yields no provider and one warning", func(t *testing.T) {
		res := newTranscriptionCascade(true, false).Resolve("remote")
		gt.B(t, res.Available).False()
		gt.String(t, res.Warning).Contains("remote transcription provider is unavailable")
	})

	t.Run("unknown preference", func(t *testing.T) {
		res := newTranscriptionCascade(false, true).Resolve("deepgram")
		gt.Value(t, res.Name).Equal("whisper_openai_api")
		gt.String(t, res.Warning).Contains("'deepgram'")
	})

	t.Run("no fallback provider", func(t *testing.T) {
		_, _, ok := newTranscriptionCascade(true, true).FallbackProvider()
		gt.B(t, ok).False()
	})

	t.Run("local provider for retry", func(t *testing.T) {
		p, name, ok := newTranscriptionCascade(true, true).LocalProvider()
		gt.B(t, ok).True()
		gt.Value(t, name).Equal("whisper_local")
		gt.Value(t, p.name).Equal("whisper_local")

		_, _, ok = newTranscriptionCascade(false, true).LocalProvider()
		gt.B(t, ok).False()
	})

	t.Run("missing option is not configured", func(t *testing.T) {
		c := &provider.Cascade[*fakeProvider]{Capability: "embedding"}
		res := c.Resolve("remote")
		gt.B(t, res.Available).False()
		gt.String(t, res.Warning).Contains("not configured")
	})
}
