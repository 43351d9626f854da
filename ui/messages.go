package ui

import "motion-logger/models"

// SessionStartedMsg carries the outcome of a start request.
type SessionStartedMsg struct {
	Started bool
	Err     error // user-facing rejection, nil when the failure was only logged
	Info    models.SessionInfo
}

// SessionStoppedMsg carries the outcome of a stop request.
type SessionStoppedMsg struct {
	Summary models.SessionSummary
	OK      bool // false when nothing was being recorded
}

// FrameMsg triggers a redraw with the latest sample and chart.
type FrameMsg struct{}

// ClearNoticeMsg clears the transient notice line.
type ClearNoticeMsg struct {
	seq int
}
