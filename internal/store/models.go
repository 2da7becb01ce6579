package store

import "time"

// ChatRecord is one persisted prompt/response pair.
type ChatRecord struct {
	ID        int64     `json:"id" db:"id"`
	Prompt    string    `json:"prompt" db:"prompt"`
	Response  string    `json:"response" db:"response"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
