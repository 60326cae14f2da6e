package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Interaction records one answered question: the classification summary,
// the communities surfaced, and the generated text.
type Interaction struct {
	ID                   string
	UserID               string
	Question             string
	TopicCategory        string
	ControversyJSON      string // serialized controversy profile summary
	SelectedJSON         string // serialized community list
	PerspectivesJSON     string // community id -> perspective text
	Synthesis            string
	StandardResponse     string
	SurfacedPerspectives bool
	CreatedAt            time.Time
}

// Feedback is a user's rating of an interaction.
type Feedback struct {
	ID                       int64
	InteractionID            string
	UserCommunity            string
	AccuracyOwnCommunity     int
	AccuracyOtherCommunities int
	Usefulness               int
	PreferMultiple           string
	MissingPerspectives      string
	Comments                 string
	CreatedAt                time.Time
}

// CacheEntry is one row of the perspective consistency cache, keyed by the
// fingerprint of (community, topic_category, normalized_query).
type CacheEntry struct {
	Fingerprint     string
	Community       string
	TopicCategory   string
	NormalizedQuery string
	Text            string
	CreatedAt       time.Time
	ExpiresAt       time.Time
	HitCount        int
}

// CommunityCount pairs a community with its cache entry count.
type CommunityCount struct {
	Community string
	Count     int
}

// CacheStats aggregates cache diagnostics.
type CacheStats struct {
	TotalEntries   int
	TotalHits      int
	TopCommunities []CommunityCount
}
