package models

import "time"

// MediaLookup is a single provider answer for one sub-resource.
type MediaLookup struct {
	Success bool    `json:"success"`
	URL     *string `json:"url"`
	Message string  `json:"message"`
}

type MultimediaResult struct {
	Word     string  `json:"word"`
	Success  bool    `json:"success"`
	AudioURL *string `json:"audioUrl"`
	ImageURL *string `json:"imageUrl"`
	Message  string  `json:"message"`
}

// HasAny reports whether at least one of audio or image was obtained.
func (r MultimediaResult) HasAny() bool {
	return r.AudioURL != nil || r.ImageURL != nil
}

// CacheEntry is a serialized cached value and the time it was stored.
type CacheEntry struct {
	Key       string    `db:"cache_key" json:"key"`
	Data      []byte    `db:"data" json:"data"`
	Timestamp time.Time `db:"created_at" json:"timestamp"`
}
