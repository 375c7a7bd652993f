package transcription

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// modelHandle is a verified local Whisper model
type modelHandle struct {
	name string
	path string
}

// modelCache keeps loaded models for the life of the process. Concurrent first
// loads of the same name share one load.
type modelCache struct {
	mu     sync.RWMutex
	models map[string]*modelHandle
	group  singleflight.Group
}

func newModelCache() *modelCache {
	return &modelCache{models: make(map[string]*modelHandle)}
}

var defaultModelCache = newModelCache()

func (c *modelCache) get(name string) (*modelHandle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.models[name]
	return h, ok
}

func (c *modelCache) load(name string, loader func() (*modelHandle, error)) (*modelHandle, error) {
	if h, ok := c.get(name); ok {
		return h, nil
	}

	v, err, _ := c.group.Do(name, func() (any, error) {
		if h, ok := c.get(name); ok {
			return h, nil
		}

		h, err := loader()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.models[name] = h
		c.mu.Unlock()
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*modelHandle), nil
}
