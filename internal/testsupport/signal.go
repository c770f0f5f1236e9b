package testsupport

import (
	"os"
	"os/signal"
	"runtime"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// Interrupt runs fn on a locked OS thread and keeps sending SIGUSR1 to that
// thread every interval until fn returns. The first signal that lands while
// fn is inside a non-restartable system call interrupts it.
func Interrupt(t testing.TB, interval time.Duration, fn func() error) error {
	t.Helper()

	sigs := make(chan os.Signal, 16)
	signal.Notify(sigs, unix.SIGUSR1)
	defer signal.Stop(sigs)

	tids := make(chan int, 1)
	done := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		tids <- unix.Gettid()
		done <- fn()
	}()

	tid := <-tids
	pid := unix.Getpid()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			if err := unix.Tgkill(pid, tid, unix.SIGUSR1); err != nil && err != unix.ESRCH {
				t.Fatalf("tgkill: %v", err)
			}
		}
	}
}
