package app

import "errors"

var (
	ErrAlreadyRunning     = errors.New("app already running")
	ErrNotRunning         = errors.New("app not running")
	ErrStoppedBeforeReady = errors.New("service stopped before it became ready")
)
