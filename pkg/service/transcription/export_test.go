package transcription

type ModelCache = modelCache

func NewModelCache() *ModelCache {
	return newModelCache()
}

// Load exposes the cache with plain path values
func (c *modelCache) Load(name string, loader func() (string, error)) (string, error) {
	h, err := c.load(name, func() (*modelHandle, error) {
		path, err := loader()
		if err != nil {
			return nil, err
		}
		return &modelHandle{name: name, path: path}, nil
	})
	if err != nil {
		return "", err
	}
	return h.path, nil
}

var WithModelCache = withModelCache
