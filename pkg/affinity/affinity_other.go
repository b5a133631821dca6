//go:build !linux

package affinity

import "runtime"

// Pin locks the calling goroutine to its OS thread. Core binding is not
// available on this platform, so the scheduler placement is left alone.
func Pin(core int) error {
	runtime.LockOSThread()
	return nil
}
