package scheduler

import (
	"errors"

	"github.com/bidhub/backend/internal/application/catalogsync"
)

var (
	// ErrSchedulerNotRunning is returned when triggering a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrSyncInProgress is returned by manual triggers while a sync is in flight
	ErrSyncInProgress = catalogsync.ErrSyncInProgress
)
