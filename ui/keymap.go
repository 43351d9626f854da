package ui

// Key binding constants used in handleKey.
const (
	KeyStart     = "enter"
	KeyStop      = "esc"
	KeyStopAlt   = "ctrl+s"
	KeyQuit      = "ctrl+c"
	KeyQuitIdle  = "ctrl+q"
	KeyBackspace = "backspace"
)
