package models

import "time"

// SessionSummary describes one finished recording.
type SessionSummary struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Path        string        `json:"path"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	Duration    time.Duration `json:"duration"` // truncated to whole seconds
	Rows        uint64        `json:"rows"`
	WriteErrors uint64        `json:"write_errors"`
}

// DurationSeconds is the whole-second length shown to the user.
func (s SessionSummary) DurationSeconds() int64 {
	return int64(s.Duration / time.Second)
}

// SessionInfo describes a session that has just been opened.
type SessionInfo struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Path  string    `json:"path"`
	Start time.Time `json:"start"`
}
