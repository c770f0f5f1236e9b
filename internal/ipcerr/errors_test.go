package ipcerr_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"ipcqueue/internal/ipcerr"
)

func TestTranslateMapsKnownCodes(t *testing.T) {
	table := ipcerr.Table{
		unix.EACCES: ipcerr.NoPermissions,
		unix.EINTR:  ipcerr.Interrupted,
	}

	err := ipcerr.Translate("mq_open", unix.EACCES, table)
	if !errors.Is(err, ipcerr.NoPermissions) {
		t.Fatalf("expected NoPermissions, got %v", err)
	}
	if !errors.Is(err, unix.EACCES) {
		t.Fatalf("expected raw errno to remain reachable, got %v", err)
	}

	wrapped := fmt.Errorf("outer: %w", unix.EINTR)
	err = ipcerr.Translate("msgrcv", wrapped, table)
	if kind, ok := ipcerr.KindOf(err); !ok || kind != ipcerr.Interrupted {
		t.Fatalf("expected Interrupted, got %v (%v)", kind, ok)
	}
}

func TestTranslateUnmappedFallsBackToGeneric(t *testing.T) {
	err := ipcerr.Translate("msgsnd", unix.EXDEV, ipcerr.Table{})
	var qe *ipcerr.Error
	if !errors.As(err, &qe) {
		t.Fatalf("expected *ipcerr.Error, got %T", err)
	}
	if qe.Kind != ipcerr.Generic {
		t.Fatalf("expected Generic, got %v", qe.Kind)
	}
	if qe.Errno != unix.EXDEV {
		t.Fatalf("expected errno to be preserved, got %v", qe.Errno)
	}
}

func TestTranslateNilAndPassthrough(t *testing.T) {
	if err := ipcerr.Translate("op", nil, nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	orig := ipcerr.New("put", ipcerr.MessageTooLarge)
	if got := ipcerr.Translate("other", orig, nil); got != orig {
		t.Fatalf("expected passthrough of existing queue error, got %v", got)
	}
	cause := errors.New("boom")
	err := ipcerr.Translate("op", cause, nil)
	if kind, _ := ipcerr.KindOf(err); kind != ipcerr.Generic {
		t.Fatalf("expected Generic for non-errno error, got %v", kind)
	}
	if !errors.Is(err, cause) || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected the cause to be kept, got %v", err)
	}
}

func TestTimeoutMatchesOutcome(t *testing.T) {
	err := &ipcerr.Error{Op: "get", Kind: ipcerr.Timeout, Outcome: ipcerr.Empty}
	if !errors.Is(err, ipcerr.Timeout) {
		t.Fatal("expected timeout to match Timeout")
	}
	if !errors.Is(err, ipcerr.Empty) {
		t.Fatal("expected timeout to match its Empty outcome")
	}
	if errors.Is(err, ipcerr.Full) {
		t.Fatal("did not expect timeout to match Full")
	}
	if !ipcerr.WouldBlock(err) {
		t.Fatal("expected WouldBlock")
	}

	interrupted := &ipcerr.Error{Op: "get", Kind: ipcerr.Interrupted, Errno: unix.EINTR}
	if errors.Is(interrupted, ipcerr.Timeout) || ipcerr.WouldBlock(interrupted) {
		t.Fatal("interruption must not read as timeout or would-block")
	}
}

func TestKindNames(t *testing.T) {
	for k := ipcerr.Generic; k <= ipcerr.Empty; k++ {
		parsed, ok := ipcerr.ParseKind(k.String())
		if !ok || parsed != k {
			t.Fatalf("round trip failed for %v", k)
		}
	}
	if _, ok := ipcerr.ParseKind("bogus"); ok {
		t.Fatal("expected unknown name to fail")
	}
	if got := ipcerr.Kind(99).String(); got != "kind(99)" {
		t.Fatalf("unexpected out of range name %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	err := &ipcerr.Error{Op: "mq_unlink", Kind: ipcerr.DoesNotExist, Errno: unix.ENOENT}
	want := "mq_unlink: queue does not exist (" + unix.ENOENT.Error() + ")"
	if err.Error() != want {
		t.Fatalf("unexpected message: got %q want %q", err.Error(), want)
	}
	if err.ErrorKind() != "does_not_exist" {
		t.Fatalf("unexpected error kind %q", err.ErrorKind())
	}
}
