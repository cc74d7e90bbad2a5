package timeouts

import (
	"context"
	"testing"
	"time"
)

func TestConfigure_KeepsZeroFields(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Call: 3 * time.Second})

	got := Current()
	if got.Call != 3*time.Second {
		t.Errorf("Call = %v, want 3s", got.Call)
	}
	if got.Ping != DefaultPing {
		t.Errorf("Ping = %v, want default %v", got.Ping, DefaultPing)
	}
	if got.Upload != DefaultUpload {
		t.Errorf("Upload = %v, want default %v", got.Upload, DefaultUpload)
	}
}

func TestReset(t *testing.T) {
	Configure(Config{Ping: time.Millisecond, Call: time.Millisecond, Upload: time.Millisecond})
	Reset()

	if Ping() != DefaultPing || Call() != DefaultCall || Upload() != DefaultUpload {
		t.Errorf("Reset did not restore defaults: %+v", Current())
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, nil, "test")
	defer cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context did not expire")
	}
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("err = %v, want DeadlineExceeded", ctx.Err())
	}
}
