package client

import "errors"

var (
	// ErrDaemonNotRunning is returned when nothing listens on the daemon socket.
	ErrDaemonNotRunning = errors.New("daemon not running")

	// ErrPermissionDenied is returned when the socket is not accessible to the
	// current user, i.e. the daemon was installed without non-root access.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when the daemon answers 404, e.g. for an unknown series.
	ErrNotFound = errors.New("404 not found")
)
