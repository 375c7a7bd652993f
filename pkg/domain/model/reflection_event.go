package model

import "time"

// ReflectionEvent records every generated reflection with its internal metadata
type ReflectionEvent struct {
	ID             int64                      `json:"id"`
	TranscriptText string                     `json:"transcript_text"`
	Reflection     Reflection                 `json:"reflection"`
	Internal       ReflectionInternalMetadata `json:"internal"`
	CreatedAt      time.Time                  `json:"created_at"`
}
