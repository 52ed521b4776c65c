package entropy

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadyInstalled is returned by every Install call after the first successful one
var ErrAlreadyInstalled = errors.New("entropy: a generator is already installed")

// Host binds a Method into a crypto library's RNG registration API.
// Registration is process-wide and cannot be undone.
type Host interface {
	Register(m Method) error
}

var (
	installMu sync.Mutex
	installed bool
)

// Install registers m with host, serialized with Synchronized. It succeeds at
// most once per process; a failed registration may be retried.
func Install(host Host, m Method) error {
	installMu.Lock()
	defer installMu.Unlock()

	if installed {
		return ErrAlreadyInstalled
	}
	if err := host.Register(Synchronized(m)); err != nil {
		return fmt.Errorf("entropy: failed to register generator: %w", err)
	}
	installed = true
	return nil
}

// Installed reports whether Install has succeeded in this process
func Installed() bool {
	installMu.Lock()
	defer installMu.Unlock()
	return installed
}
