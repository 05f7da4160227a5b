package utils

import (
	"fmt"
	"runtime/debug"

	"github.com/inboxpilot/mailsync/internal/logger"
)

// RunDetached launches fn on its own goroutine without the caller waiting on it.
// The outcome is always logged, and also delivered on the returned channel for
// callers (tests, mostly) that want to observe it. Panics are recovered and
// reported as errors rather than crashing the process.
func RunDetached(name string, log logger.Logger, fn func() error) <-chan error {
	outcome := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic in %s: %v", name, r)
				log.Errorf("%v\n%s", err, debug.Stack())
				outcome <- err
			}
			close(outcome)
		}()

		if err := fn(); err != nil {
			log.Warnf("detached task %s failed: %v", name, err)
			outcome <- err
			return
		}
		log.Debugf("detached task %s completed", name)
	}()

	return outcome
}
