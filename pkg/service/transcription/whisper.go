package transcription

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/domain/types"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
	"github.com/secmon-lab/echonotes/pkg/utils/safe"
)

// CommandRunner executes an external command and returns its combined output
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Whisper transcribes audio with a local whisper.cpp binary
type Whisper struct {
	bin       string
	modelDir  string
	modelName string
	run       CommandRunner
	cache     *modelCache
	lookPath  func(string) (string, error)
}

var _ interfaces.TranscriptionProvider = &Whisper{}

// WhisperOption configures Whisper
type WhisperOption func(*Whisper)

// WithCommandRunner replaces command execution
func WithCommandRunner(run CommandRunner) WhisperOption {
	return func(w *Whisper) {
		w.run = run
	}
}

// WithLookPath replaces binary lookup
func WithLookPath(lookPath func(string) (string, error)) WhisperOption {
	return func(w *Whisper) {
		w.lookPath = lookPath
	}
}

func withModelCache(c *modelCache) WhisperOption {
	return func(w *Whisper) {
		w.cache = c
	}
}

func NewWhisper(bin, modelDir, modelName string, opts ...WhisperOption) *Whisper {
	w := &Whisper{
		bin:       bin,
		modelDir:  modelDir,
		modelName: modelName,
		run:       execRunner,
		cache:     defaultModelCache,
		lookPath:  exec.LookPath,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ModelName is the reported model name, such as "whisper-base"
func (w *Whisper) ModelName() string {
	return "whisper-" + w.modelName
}

func (w *Whisper) modelPath() string {
	return filepath.Join(w.modelDir, "ggml-"+w.modelName+".bin")
}

// Check reports why the provider cannot run, or nil when it can
func (w *Whisper) Check() error {
	if w.bin == "" || w.modelName == "" {
		return goerr.New("whisper is not configured")
	}
	if _, err := w.lookPath(w.bin); err != nil {
		return goerr.Wrap(err, "whisper binary not found", goerr.V("bin", w.bin))
	}
	if _, err := os.Stat(w.modelPath()); err != nil {
		return goerr.Wrap(err, "whisper model not found", goerr.V("path", w.modelPath()))
	}
	return nil
}

func (w *Whisper) loadModel() (*modelHandle, error) {
	return w.cache.load(w.modelPath(), func() (*modelHandle, error) {
		info, err := os.Stat(w.modelPath())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to stat whisper model", goerr.V("path", w.modelPath()))
		}
		if info.IsDir() || info.Size() == 0 {
			return nil, goerr.New("invalid whisper model file", goerr.V("path", w.modelPath()))
		}
		return &modelHandle{name: w.modelName, path: w.modelPath()}, nil
	})
}

// whisperOutput is the JSON document written by `whisper-cli -oj`
type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func (w *Whisper) Transcribe(ctx context.Context, audio *interfaces.AudioInput) (*model.Transcript, error) {
	handle, err := w.loadModel()
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(audio.Filename))
	if ext == "" {
		ext = ".wav"
	}

	tmp, err := os.CreateTemp("", "echonotes-*"+ext)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary audio file")
	}
	audioPath := tmp.Name()
	defer safe.Remove(ctx, audioPath)

	if _, err := tmp.Write(audio.Data); err != nil {
		safe.Close(ctx, tmp)
		return nil, goerr.Wrap(err, "failed to write temporary audio file")
	}
	if err := tmp.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to close temporary audio file")
	}

	outBase := strings.TrimSuffix(audioPath, ext)
	outPath := outBase + ".json"
	defer safe.Remove(ctx, outPath)

	args := []string{"-m", handle.path, "-f", audioPath, "-l", "auto", "-oj", "-of", outBase, "-np"}
	logging.From(ctx).Debug("running whisper", "bin", w.bin, "model", handle.name)
	if out, err := w.run(ctx, w.bin, args...); err != nil {
		return nil, goerr.Wrap(err, "whisper command failed", goerr.V("output", string(out)))
	}

	raw, err := os.ReadFile(outPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read whisper output", goerr.V("path", outPath))
	}

	var parsed whisperOutput
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, goerr.Wrap(err, "failed to parse whisper output")
	}

	var (
		sb    strings.Builder
		endMS int64
	)
	for _, seg := range parsed.Transcription {
		sb.WriteString(seg.Text)
		endMS = max(endMS, seg.Offsets.To)
	}

	transcript := &model.Transcript{
		Text: strings.TrimSpace(sb.String()),
		Metadata: model.TranscriptMetadata{
			Model:  w.ModelName(),
			Source: types.TranscriptSourceWhisperLocal,
		},
	}
	if parsed.Result.Language != "" {
		transcript.Metadata.Language = model.Ptr(parsed.Result.Language)
	}
	if endMS > 0 {
		transcript.Metadata.DurationSeconds = model.Ptr(float64(endMS) / 1000)
	}
	return transcript, nil
}
