package boundary

import (
	"errors"
	"strings"
	"testing"
)

// --------------------------------------------------------------------------
// Test engine
// --------------------------------------------------------------------------

// stubEngine serves one fixed entry and can be told to fail or panic
type stubEngine struct {
	openErr    error
	applyErr   error
	panicOnGet bool
	closed     int
	applied    [][]Op
}

func (e *stubEngine) Name() string { return "stub" }

func (e *stubEngine) Open(string) (Database, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	return &stubDatabase{engine: e}, nil
}

type stubDatabase struct{ engine *stubEngine }

func (d *stubDatabase) Snapshot() (Cursor, error) {
	return &stubCursor{engine: d.engine}, nil
}

func (d *stubDatabase) Apply(ops []Op) error {
	d.engine.applied = append(d.engine.applied, ops)
	return d.engine.applyErr
}

func (d *stubDatabase) Close() error {
	d.engine.closed++
	return nil
}

type stubCursor struct {
	engine *stubEngine
	done   bool
}

func (c *stubCursor) Next() ([KeySize]byte, []byte, bool, error) {
	if c.engine.panicOnGet {
		panic("cursor exploded")
	}
	if c.done {
		return [KeySize]byte{}, nil, false, nil
	}
	c.done = true
	return [KeySize]byte{'k'}, []byte("value"), true, nil
}

func (c *stubCursor) Close() error { return nil }

func lastMessage(t *testing.T, h *Host) (Result, string) {
	t.Helper()
	msg := make([]byte, 1024)
	res, last, n := h.LastResult(msg)
	if !res.IsOk() {
		t.Fatalf("LastResult failed with %s", res)
	}
	return last, string(msg[:n])
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestHostOpenError(t *testing.T) {
	h := NewHost(&stubEngine{openErr: errors.New("disk on fire")})

	store, res := h.StoreOpen([]byte("somewhere"))
	if res.Kind != KindInternalError || store != InvalidHandle {
		t.Fatalf("Expected InternalError and no handle, got %s and %d", res, store)
	}

	last, msg := lastMessage(t, h)
	if last != res {
		t.Errorf("Expected last result %s, got %s", res, last)
	}
	if !strings.Contains(msg, "disk on fire") {
		t.Errorf("Expected the engine error in the message, got %q", msg)
	}
}

func TestHostInvalidPath(t *testing.T) {
	h := NewHost(&stubEngine{})

	if _, res := h.StoreOpen([]byte{0xff, 0xfe}); res.Kind != KindArgumentNull {
		t.Errorf("Expected ArgumentNull for an invalid UTF-8 path, got %s", res)
	}
	if _, res := h.StoreOpen(nil); res.Kind != KindArgumentNull {
		t.Errorf("Expected ArgumentNull for an empty path, got %s", res)
	}
}

func TestHostPanicRecovery(t *testing.T) {
	engine := &stubEngine{panicOnGet: true}
	h := NewHost(engine)

	store, res := h.StoreOpen([]byte("p"))
	if !res.IsOk() {
		t.Fatalf("StoreOpen failed with %s", res)
	}
	reader, res := h.ReadBegin(store)
	if !res.IsOk() {
		t.Fatalf("ReadBegin failed with %s", res)
	}

	var key [KeySize]byte
	_, res = h.ReadNext(reader, &key, make([]byte, 8))
	if res.Kind != KindInternalError {
		t.Fatalf("Expected InternalError after a panic, got %s", res)
	}

	last, msg := lastMessage(t, h)
	if last != res {
		t.Errorf("Expected last result %s, got %s", res, last)
	}
	if msg != "internal panic with 'cursor exploded'" {
		t.Errorf("Unexpected panic message %q", msg)
	}

	if res := h.ReadEnd(reader); !res.IsOk() {
		t.Errorf("ReadEnd failed with %s", res)
	}
	if res := h.StoreClose(store); !res.IsOk() {
		t.Errorf("StoreClose failed with %s", res)
	}
	if h.OpenHandles() != 0 {
		t.Errorf("Expected no open handles, got %d", h.OpenHandles())
	}
}

func TestHostSuccessOverwritesSlot(t *testing.T) {
	h := NewHost(&stubEngine{})

	_, failed := h.StoreOpen(nil)
	store, res := h.StoreOpen([]byte("ok"))
	if !res.IsOk() {
		t.Fatalf("StoreOpen failed with %s", res)
	}
	defer h.StoreClose(store)

	last, msg := lastMessage(t, h)
	if last == failed {
		t.Errorf("Expected the failed result to be replaced")
	}
	if !last.IsOk() || msg != "" {
		t.Errorf("Expected Ok without a message, got %s %q", last, msg)
	}
}

func TestHostErrorIDsAreUnique(t *testing.T) {
	h := NewHost(&stubEngine{})

	_, a := h.StoreOpen(nil)
	_, b := h.StoreOpen(nil)
	if a.Kind != b.Kind {
		t.Fatalf("Expected equal kinds, got %s and %s", a, b)
	}
	if a == b {
		t.Errorf("Expected different correlation ids for two failures, got %s twice", a)
	}
}

func TestHostWriteCopiesValue(t *testing.T) {
	engine := &stubEngine{}
	h := NewHost(engine)

	store, _ := h.StoreOpen([]byte("w"))
	defer h.StoreClose(store)

	writer, res := h.WriteBegin(store)
	if !res.IsOk() {
		t.Fatalf("WriteBegin failed with %s", res)
	}

	key := [KeySize]byte{'k'}
	value := []byte("abc")
	if res := h.WriteSet(writer, &key, value); !res.IsOk() {
		t.Fatalf("WriteSet failed with %s", res)
	}
	value[0] = 'X'

	if res := h.WriteEnd(writer); !res.IsOk() {
		t.Fatalf("WriteEnd failed with %s", res)
	}
	if len(engine.applied) != 1 || string(engine.applied[0][0].Value) != "abc" {
		t.Errorf("Expected one applied batch with value abc, got %v", engine.applied)
	}
}

func TestHostApplyError(t *testing.T) {
	engine := &stubEngine{applyErr: errors.New("no space left")}
	h := NewHost(engine)

	store, _ := h.StoreOpen([]byte("d"))
	deleter, _ := h.DeleteBegin(store)

	key := [KeySize]byte{'k'}
	if res := h.DeleteRemove(deleter, &key); !res.IsOk() {
		t.Fatalf("DeleteRemove failed with %s", res)
	}

	res := h.DeleteEnd(deleter)
	if res.Kind != KindInternalError {
		t.Fatalf("Expected InternalError, got %s", res)
	}
	if _, msg := lastMessage(t, h); !strings.Contains(msg, "no space left") {
		t.Errorf("Expected the apply error in the message, got %q", msg)
	}

	// the handle is released even though the session failed
	if res := h.DeleteEnd(deleter); res.Kind != KindArgumentNull {
		t.Errorf("Expected ArgumentNull for a released deleter, got %s", res)
	}
	if res := h.StoreClose(store); !res.IsOk() {
		t.Errorf("StoreClose failed with %s", res)
	}
	if engine.closed != 1 {
		t.Errorf("Expected the database to be closed once, got %d", engine.closed)
	}
}

func TestResultKinds(t *testing.T) {
	if !Ok().IsSuccess() || !Done().IsSuccess() {
		t.Errorf("Ok and Done must be successes")
	}
	if BufferTooSmall().IsSuccess() || ArgumentNull().IsSuccess() || InternalError().IsSuccess() {
		t.Errorf("error kinds must not be successes")
	}
	if Ok().ID != 0 || Done().ID != 0 {
		t.Errorf("successful results must not carry a correlation id")
	}
	if KindInternalError.DefaultMessage() != "an internal error occurred" {
		t.Errorf("Unexpected default message %q", KindInternalError.DefaultMessage())
	}
	if ResultKind(99).String() != "Unknown(99)" {
		t.Errorf("Unexpected name for an unknown kind: %s", ResultKind(99))
	}
}
