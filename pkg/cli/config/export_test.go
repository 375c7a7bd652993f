package config

import (
	"context"

	"github.com/m-mizutani/gollem"
)

func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

func NewRepositoryForTest(backend, dbPath string) *Repository {
	return &Repository{backend: backend, dbPath: dbPath}
}

func NewAudioStoreForTest(kind, dir, bucket string) *AudioStore {
	return &AudioStore{kind: kind, dir: dir, bucket: bucket}
}

func NewLLMForTest(defaultModel, cheapModel, openAIAPIKey string) *LLM {
	return &LLM{
		provider:       "auto",
		defaultModel:   defaultModel,
		cheapModel:     cheapModel,
		embeddingModel: "text-embedding-3-small",
		openAIAPIKey:   openAIAPIKey,
	}
}

func (l *LLM) ReflectionClientsForTest(ctx context.Context) (map[string]gollem.LLMClient, error) {
	return l.reflectionClients(ctx)
}
