package transcription_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/sashabaranov/go-openai"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
	"github.com/secmon-lab/echonotes/pkg/service/transcription"
)

func TestPassthrough(t *testing.T) {
	t.Run("text content type", func(t *testing.T) {
		audio := &interfaces.AudioInput{Filename: "note", ContentType: "text/plain", Data: []byte("  typed note \n")}
		gt.B(t, transcription.IsText(audio)).True()

		tr := transcription.Passthrough(audio)
		gt.Value(t, tr.Text).Equal("typed note")
		gt.Value(t, tr.Metadata.Model).Equal("text-passthrough-v1")
		gt.Value(t, *tr.Metadata.Language).Equal("en")
		gt.Value(t, tr.Metadata.Source).Equal(types.TranscriptSourceText)
	})

	t.Run("txt extension", func(t *testing.T) {
		audio := &interfaces.AudioInput{Filename: "NOTE.TXT", ContentType: "application/octet-stream"}
		gt.B(t, transcription.IsText(audio)).True()
	})

	t.Run("audio upload", func(t *testing.T) {
		audio := &interfaces.AudioInput{Filename: "clip.wav", ContentType: "audio/wav"}
		gt.B(t, transcription.IsText(audio)).False()
	})

	t.Run("invalid utf-8 is dropped", func(t *testing.T) {
		tr := transcription.Passthrough(&interfaces.AudioInput{Data: []byte("ok\xff\xfe text")})
		gt.Value(t, tr.Text).Equal("ok text")
	})
}

func setupModelDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "ggml-base.bin"), []byte("lmgg-model"), 0o600)).Required()
	return dir
}

func foundBinary(string) (string, error) { return "/usr/local/bin/whisper-cli", nil }

func fakeWhisperRunner(output string, calls *[][]string) transcription.CommandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, args)
		for i, a := range args {
			if a == "-of" && i+1 < len(args) {
				if err := os.WriteFile(args[i+1]+".json", []byte(output), 0o600); err != nil {
					return nil, err
				}
			}
		}
		return nil, nil
	}
}

const whisperJSON = `{
  "result": {"language": "en"},
  "transcription": [
    {"offsets": {"from": 0, "to": 2100}, "text": " Hello there."},
    {"offsets": {"from": 2100, "to": 4500}, "text": " Second sentence."}
  ]
}`

func TestWhisper(t *testing.T) {
	ctx := context.Background()

	t.Run("transcribes with whisper.cpp output", func(t *testing.T) {
		var calls [][]string
		dir := setupModelDir(t)
		w := transcription.NewWhisper("whisper-cli", dir, "base",
			transcription.WithLookPath(foundBinary),
			transcription.WithCommandRunner(fakeWhisperRunner(whisperJSON, &calls)),
			transcription.WithModelCache(transcription.NewModelCache()),
		)
		gt.NoError(t, w.Check())

		tr, err := w.Transcribe(ctx, &interfaces.AudioInput{Filename: "clip.wav", Data: []byte("RIFF")})
		gt.NoError(t, err).Required()
		gt.Value(t, tr.Text).Equal("Hello there. Second sentence.")
		gt.Value(t, tr.Metadata.Model).Equal("whisper-base")
		gt.Value(t, *tr.Metadata.Language).Equal("en")
		gt.Value(t, *tr.Metadata.DurationSeconds).Equal(4.5)
		gt.Value(t, tr.Metadata.Source).Equal(types.TranscriptSourceWhisperLocal)

		gt.Array(t, calls).Length(1).Required()
		gt.Array(t, calls[0]).Has(filepath.Join(dir, "ggml-base.bin"))
	})

	t.Run("command failure", func(t *testing.T) {
		w := transcription.NewWhisper("whisper-cli", setupModelDir(t), "base",
			transcription.WithLookPath(foundBinary),
			transcription.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return []byte("unsupported format"), errors.New("exit status 1")
			}),
			transcription.WithModelCache(transcription.NewModelCache()),
		)
		_, err := w.Transcribe(ctx, &interfaces.AudioInput{Filename: "clip.mp3", Data: []byte("ID3")})
		gt.Error(t, err)
	})

	t.Run("missing binary", func(t *testing.T) {
		w := transcription.NewWhisper("whisper-cli", setupModelDir(t), "base",
			transcription.WithLookPath(func(string) (string, error) { return "", errors.New("not found") }),
		)
		gt.Error(t, w.Check())
	})

	t.Run("missing model", func(t *testing.T) {
		w := transcription.NewWhisper("whisper-cli", t.TempDir(), "large",
			transcription.WithLookPath(foundBinary),
		)
		gt.Error(t, w.Check())
	})
}

func TestModelCache(t *testing.T) {
	t.Run("concurrent first loads share one load", func(t *testing.T) {
		cache := transcription.NewModelCache()
		var loads atomic.Int32
		release := make(chan struct{})

		var wg sync.WaitGroup
		results := make([]string, 8)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				path, err := cache.Load("base", func() (string, error) {
					loads.Add(1)
					<-release
					return "/models/ggml-base.bin", nil
				})
				if err == nil {
					results[i] = path
				}
			}()
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		gt.Value(t, loads.Load()).Equal(int32(1))
		for _, r := range results {
			gt.Value(t, r).Equal("/models/ggml-base.bin")
		}

		_, err := cache.Load("base", func() (string, error) {
			loads.Add(1)
			return "", nil
		})
		gt.NoError(t, err)
		gt.Value(t, loads.Load()).Equal(int32(1))
	})

	t.Run("failed load is retried", func(t *testing.T) {
		cache := transcription.NewModelCache()
		_, err := cache.Load("tiny", func() (string, error) { return "", errors.New("corrupt") })
		gt.Error(t, err)

		path, err := cache.Load("tiny", func() (string, error) { return "/models/ggml-tiny.bin", nil })
		gt.NoError(t, err)
		gt.Value(t, path).Equal("/models/ggml-tiny.bin")
	})
}

type mockTranscriber struct {
	resp openai.AudioResponse
	err  error
	req  openai.AudioRequest
}

func (m *mockTranscriber) CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	m.req = req
	return m.resp, m.err
}

func TestOpenAI(t *testing.T) {
	ctx := context.Background()

	t.Run("maps verbose response", func(t *testing.T) {
		m := &mockTranscriber{resp: openai.AudioResponse{Language: "english", Duration: 3.25, Text: " Remote words. "}}
		tr, err := transcription.NewOpenAI(m, "whisper-1").Transcribe(ctx, &interfaces.AudioInput{Filename: "clip.m4a", Data: []byte("x")})
		gt.NoError(t, err).Required()
		gt.Value(t, tr.Text).Equal("Remote words.")
		gt.Value(t, tr.Metadata.Model).Equal("whisper-1")
		gt.Value(t, *tr.Metadata.Language).Equal("english")
		gt.Value(t, *tr.Metadata.DurationSeconds).Equal(3.25)
		gt.Value(t, tr.Metadata.Source).Equal(types.TranscriptSourceWhisperOpenAIAPI)
		gt.Value(t, m.req.FilePath).Equal("clip.m4a")
		gt.Value(t, m.req.Format).Equal(openai.AudioResponseFormatVerboseJSON)
	})

	t.Run("api failure", func(t *testing.T) {
		m := &mockTranscriber{err: errors.New("401")}
		_, err := transcription.NewOpenAI(m, "whisper-1").Transcribe(ctx, &interfaces.AudioInput{Data: []byte("x")})
		gt.Error(t, err)
		gt.Value(t, m.req.FilePath).Equal("upload.wav")
	})

	t.Run("client requires API key", func(t *testing.T) {
		_, err := transcription.NewOpenAIClient("", "")
		gt.Error(t, err)

		c, err := transcription.NewOpenAIClient("sk-test", "http://localhost:8080/v1")
		gt.NoError(t, err)
		gt.Value(t, c != nil).Equal(true)
	})
}
