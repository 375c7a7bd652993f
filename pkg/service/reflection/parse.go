package reflection

import (
	"encoding/json"
	"strings"

	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

// Parse decodes provider output into a reflection. When the whole content is not
// a valid reflection, the span from the first '{' to the last '}' is tried.
// It returns false when neither attempt yields a valid reflection.
func Parse(content string) (*model.Reflection, bool) {
	if r, ok := decode(content); ok {
		return r, true
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	return decode(content[start : end+1])
}

func decode(s string) (*model.Reflection, bool) {
	var r model.Reflection
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, false
	}
	if err := r.Validate(); err != nil {
		return nil, false
	}
	r.Normalize()
	return &r, true
}
