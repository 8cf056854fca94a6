package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrReloadBusy   = errors.New("reload queue full")
	ErrNoFreelancer = errors.New("no freelancers source configured")
)
