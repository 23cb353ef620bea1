package progress

import "time"

// Progress is a user's watch state for one video. The store guarantees at
// most one record per (user, video) pair.
type Progress struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	VideoID         string    `json:"video_id"`
	LastWatchedTime int       `json:"last_watched_time"` // seconds
	Completed       bool      `json:"completed"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// WatchStats aggregates all watch states of one video. Recomputed on demand.
type WatchStats struct {
	TotalWatches int `json:"totalWatches"`
	Completed    int `json:"completed"`
	InProgress   int `json:"inProgress"`
	AvgWatchTime int `json:"avgWatchTime"` // seconds, rounded
}
