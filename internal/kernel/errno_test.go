package kernel

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"

	"ipcqueue/internal/ipcerr"
)

func TestTranslateUsesPerSyscallTables(t *testing.T) {
	cases := []struct {
		name      string
		translate func(error) error
		op        string
		errno     unix.Errno
		want      ipcerr.Kind
	}{
		{"unlink missing", TranslatePosix, opMqUnlink, unix.ENOENT, ipcerr.DoesNotExist},
		{"open missing dir", TranslatePosix, opMqOpen, unix.ENOENT, ipcerr.InvalidValue},
		{"send oversized", TranslatePosix, opMqSend, unix.EMSGSIZE, ipcerr.MessageTooLarge},
		{"receive deadline", TranslatePosix, opMqReceive, unix.ETIMEDOUT, ipcerr.Timeout},
		{"close twice", TranslatePosix, opMqClose, unix.EBADF, ipcerr.InvalidDescriptor},
		{"msgget missing", TranslateSysV, opMsgGet, unix.ENOENT, ipcerr.DoesNotExist},
		{"msgrcv removed", TranslateSysV, opMsgReceive, unix.EIDRM, ipcerr.InvalidDescriptor},
		{"msgrcv signal", TranslateSysV, opMsgReceive, unix.EINTR, ipcerr.Interrupted},
		{"rmid gone", TranslateSysV, opMsgRemove, unix.EINVAL, ipcerr.DoesNotExist},
		{"unmapped", TranslateSysV, opMsgSend, unix.EXDEV, ipcerr.Generic},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.translate(syscallErr(tc.op, tc.errno))
			kind, ok := ipcerr.KindOf(err)
			if !ok || kind != tc.want {
				t.Fatalf("kind = %v (ok=%v), want %v", kind, ok, tc.want)
			}
			if !errors.Is(err, tc.errno) {
				t.Fatalf("expected %v to keep errno %v", err, tc.errno)
			}
		})
	}
}

func TestTranslateNil(t *testing.T) {
	if err := TranslatePosix(nil); err != nil {
		t.Fatalf("TranslatePosix(nil) = %v", err)
	}
}

func TestUnavailable(t *testing.T) {
	if !Unavailable(syscallErr(opMqSend, unix.EAGAIN)) || !Unavailable(syscallErr(opMsgReceive, unix.ENOMSG)) {
		t.Fatalf("expected EAGAIN and ENOMSG to count as unavailable")
	}
	if Unavailable(syscallErr(opMsgReceive, unix.EINTR)) {
		t.Fatalf("EINTR is not unavailable")
	}
}
