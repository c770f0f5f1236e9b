package testsupport

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"ipcqueue/internal/ipcerr"
	"ipcqueue/internal/queue"
)

// PosixName returns a queue name that no other test run will use.
func PosixName(t testing.TB) string {
	t.Helper()
	return "/ipcq-test-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SysVKey returns a random non-private System V key.
func SysVKey(t testing.TB) int64 {
	t.Helper()
	id := uuid.New()
	return int64(binary.BigEndian.Uint32(id[:4]) | 1)
}

// SkipIfUnsupported skips the test when err shows the kernel facility is
// missing or off limits to this process, as in restricted containers.
func SkipIfUnsupported(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		return
	}
	if errors.Is(err, unix.ENOSYS) {
		t.Skipf("message queues not available: %v", err)
	}
	if kind, _ := ipcerr.KindOf(err); kind == ipcerr.NoPermissions || kind == ipcerr.NoSystemResources {
		t.Skipf("message queues not usable here: %v", err)
	}
}

// OpenPosix opens a fresh POSIX queue and removes it when the test ends.
func OpenPosix(t testing.TB, limits queue.PosixLimits, opts queue.Options) *queue.PosixQueue {
	t.Helper()
	name := PosixName(t)
	q, err := queue.OpenPosix(name, limits, opts)
	SkipIfUnsupported(t, err)
	if err != nil {
		t.Fatalf("OpenPosix(%s): %v", name, err)
	}
	t.Cleanup(func() {
		_ = q.Close()
		_ = queue.UnlinkPosix(name)
	})
	return q
}

// OpenSysV opens a System V queue and removes it when the test ends.
func OpenSysV(t testing.TB, key, maxBytes int64, opts queue.Options) *queue.SysVQueue {
	t.Helper()
	q, err := queue.OpenSysV(key, maxBytes, opts)
	SkipIfUnsupported(t, err)
	if err != nil {
		t.Fatalf("OpenSysV(%#x): %v", key, err)
	}
	t.Cleanup(func() {
		_ = q.Destroy()
	})
	return q
}
