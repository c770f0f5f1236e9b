package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ipcqueue/internal/codec"
	"ipcqueue/internal/ipcerr"
	"ipcqueue/internal/queue"
	"ipcqueue/internal/testsupport"
)

func TestPosixSendRecvRoundTrip(t *testing.T) {
	path := newTestConfigPath(t)
	name := testsupport.PosixName(t)
	t.Cleanup(func() { _ = queue.UnlinkPosix(name) })

	res := runCLI(t, "", "--config", path, "posix", "send", name, "--nowait", "-p", "1", "low")
	testsupport.SkipIfUnsupported(t, res.err)
	if res.err != nil {
		t.Fatalf("send: %v", res.err)
	}
	if res = runCLI(t, "from stdin", "--config", path, "posix", "send", name, "--nowait", "-p", "9"); res.err != nil {
		t.Fatalf("send from stdin: %v", res.err)
	}

	res = runCLI(t, "", "--config", path, "posix", "stat", name, "--json")
	if res.err != nil {
		t.Fatalf("stat: %v", res.err)
	}
	var report statReport
	if err := json.Unmarshal([]byte(res.stdout), &report); err != nil {
		t.Fatalf("decode stat output: %v\n%s", err, res.stdout)
	}
	if report.Attributes.Count != 2 || report.Backend != queue.BackendPosix {
		t.Fatalf("unexpected stat report %+v", report)
	}

	res = runCLI(t, "", "--config", path, "posix", "recv", name, "--nowait", "-n", "2")
	if res.err != nil {
		t.Fatalf("recv: %v", res.err)
	}
	if res.stdout != "from stdin\nlow\n" {
		t.Fatalf("expected priority order, got %q", res.stdout)
	}

	res = runCLI(t, "", "--config", path, "posix", "recv", name, "--nowait")
	if !ipcerr.WouldBlock(res.err) || exitCode(res.err) != exitWouldBlock {
		t.Fatalf("expected would-block on empty queue, got %v", res.err)
	}

	if res = runCLI(t, "", "--config", path, "posix", "unlink", name); res.err != nil {
		t.Fatalf("unlink: %v", res.err)
	}
	res = runCLI(t, "", "--config", path, "posix", "unlink", name)
	if kind, _ := ipcerr.KindOf(res.err); kind != ipcerr.DoesNotExist {
		t.Fatalf("expected DoesNotExist on second unlink, got %v", res.err)
	}
	if exitCode(res.err) != exitFailure {
		t.Fatalf("expected exit code %d, got %d", exitFailure, exitCode(res.err))
	}
}

func TestPosixRecvTimeout(t *testing.T) {
	path := newTestConfigPath(t)
	name := testsupport.PosixName(t)
	t.Cleanup(func() { _ = queue.UnlinkPosix(name) })

	start := time.Now()
	res := runCLI(t, "", "--config", path, "posix", "recv", name, "--timeout", "100ms")
	testsupport.SkipIfUnsupported(t, res.err)
	if !queue.IsTimeout(res.err) {
		t.Fatalf("expected timeout, got %v", res.err)
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Fatalf("returned after %v, before the timeout", elapsed)
	}
}

// slowReader hands out its data only after delay has passed.
type slowReader struct {
	delay time.Duration
	data  *strings.Reader
	slept bool
}

func (r *slowReader) Read(p []byte) (int, error) {
	if !r.slept {
		time.Sleep(r.delay)
		r.slept = true
	}
	return r.data.Read(p)
}

func TestPosixSendTimeoutStartsAfterStdin(t *testing.T) {
	name := testsupport.PosixName(t)
	path := newTestConfigPath(t, testsupport.WithPosix(name, 1, 1024))
	t.Cleanup(func() { _ = queue.UnlinkPosix(name) })

	res := runCLI(t, "", "--config", path, "posix", "send", name, "--nowait", "first")
	testsupport.SkipIfUnsupported(t, res.err)
	if res.err != nil {
		t.Fatalf("fill queue: %v", res.err)
	}

	start := time.Now()
	stdin := &slowReader{delay: 300 * time.Millisecond, data: strings.NewReader("second")}
	res = runCLIWithInput(t, stdin, "--config", path, "posix", "send", name, "--timeout", "400ms")
	elapsed := time.Since(start)
	if !queue.IsTimeout(res.err) || !errors.Is(res.err, ipcerr.Full) {
		t.Fatalf("expected timeout on full queue, got %v", res.err)
	}
	if elapsed < 650*time.Millisecond {
		t.Fatalf("returned after %v; the timeout must not include the time spent reading stdin", elapsed)
	}
}

func TestPosixRejectsBadName(t *testing.T) {
	path := newTestConfigPath(t)
	res := runCLI(t, "", "--config", path, "posix", "send", "no-slash", "hi")
	if res.err == nil || !strings.Contains(res.err.Error(), "queue name") {
		t.Fatalf("expected name validation error, got %v", res.err)
	}
}

func TestSysVAliasTypeSelection(t *testing.T) {
	key := testsupport.SysVKey(t)
	path := newTestConfigPath(t, testsupport.WithCodec("json"), testsupport.WithSysV("events", key, 0))
	t.Cleanup(func() { _ = queue.DestroySysV(key) })

	res := runCLI(t, "", "--config", path, "sysv", "send", "events", "--nowait", "-t", "3", `{"n":1}`)
	testsupport.SkipIfUnsupported(t, res.err)
	if res.err != nil {
		t.Fatalf("send: %v", res.err)
	}
	if res = runCLI(t, "", "--config", path, "sysv", "send", fmt.Sprintf("%#x", key), "--nowait", "-t", "7", "plain"); res.err != nil {
		t.Fatalf("send by key: %v", res.err)
	}

	res = runCLI(t, "", "--config", path, "sysv", "recv", "events", "--nowait", "-t", "7")
	if res.err != nil {
		t.Fatalf("recv type 7: %v", res.err)
	}
	if res.stdout != "\"plain\"\n" {
		t.Fatalf("unexpected message %q", res.stdout)
	}
	res = runCLI(t, "", "--config", path, "sysv", "recv", "events", "--nowait", "-t", "7")
	if !ipcerr.WouldBlock(res.err) {
		t.Fatalf("expected would-block for drained type, got %v", res.err)
	}

	res = runCLI(t, "", "--config", path, "sysv", "stat", "events")
	if res.err != nil {
		t.Fatalf("stat: %v", res.err)
	}
	if !strings.Contains(res.stdout, fmt.Sprintf("0x%08x", key)) {
		t.Fatalf("expected key in stat output:\n%s", res.stdout)
	}

	res = runCLI(t, "", "--config", path, "sysv", "recv", "events", "--nowait")
	if res.err != nil || res.stdout != "{\"n\":1}\n" {
		t.Fatalf("recv any: %q %v", res.stdout, res.err)
	}

	if res = runCLI(t, "", "--config", path, "sysv", "rm", "events"); res.err != nil {
		t.Fatalf("rm: %v", res.err)
	}
	res = runCLI(t, "", "--config", path, "sysv", "rm", "events")
	if kind, _ := ipcerr.KindOf(res.err); kind != ipcerr.DoesNotExist {
		t.Fatalf("expected DoesNotExist after removal, got %v", res.err)
	}
}

func TestSysVRejectsPrivateKeyAndUnknownAlias(t *testing.T) {
	path := newTestConfigPath(t)
	if res := runCLI(t, "", "--config", path, "sysv", "send", "0", "hi"); res.err == nil || !strings.Contains(res.err.Error(), "private") {
		t.Fatalf("expected private key rejection, got %v", res.err)
	}
	if res := runCLI(t, "", "--config", path, "sysv", "stat", "nope"); res.err == nil || !strings.Contains(res.err.Error(), "alias") {
		t.Fatalf("expected unknown alias error, got %v", res.err)
	}
}

func TestWaitFlagsMode(t *testing.T) {
	cases := []struct {
		name    string
		flags   waitFlags
		want    string
		wantErr bool
	}{
		{name: "default", flags: waitFlags{}, want: queue.BlockForever().String()},
		{name: "nowait", flags: waitFlags{nowait: true}, want: queue.NonBlocking().String()},
		{name: "timeout", flags: waitFlags{timeout: time.Second}},
		{name: "both", flags: waitFlags{nowait: true, timeout: time.Second}, wantErr: true},
		{name: "negative", flags: waitFlags{timeout: -time.Second}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.flags.validate()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected %+v to be rejected", tc.flags)
				}
				return
			}
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			mode := tc.flags.mode()
			if tc.want == "" {
				deadline, ok := mode.Deadline()
				if !ok || time.Until(deadline) > tc.flags.timeout {
					t.Fatalf("expected deadline within %v, got %v", tc.flags.timeout, mode)
				}
				return
			}
			if mode.String() != tc.want {
				t.Fatalf("mode = %s, want %s", mode, tc.want)
			}
		})
	}
}

func TestEncodeValuePerCodec(t *testing.T) {
	if v, ok := encodeValue(codec.Raw{}, []byte("abc")).([]byte); !ok || string(v) != "abc" {
		t.Fatalf("raw should pass bytes through, got %#v", v)
	}
	if v, ok := encodeValue(codec.JSON{}, []byte(`{"a":1}`)).(map[string]any); !ok || v["a"] != float64(1) {
		t.Fatalf("json should parse objects, got %#v", v)
	}
	if v, ok := encodeValue(codec.JSON{}, []byte("not json")).(string); !ok || v != "not json" {
		t.Fatalf("json should fall back to string, got %#v", v)
	}
	if v, ok := encodeValue(codec.Gob{}, []byte("x")).(string); !ok || v != "x" {
		t.Fatalf("gob should send strings, got %#v", v)
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(ipcerr.New("get", ipcerr.Empty)); got != exitWouldBlock {
		t.Fatalf("Empty exit code = %d", got)
	}
	if got := exitCode(fmt.Errorf("boom")); got != exitFailure {
		t.Fatalf("generic exit code = %d", got)
	}
}
