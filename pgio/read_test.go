package pgio

import (
	"testing"
)

func TestNextByte(t *testing.T) {
	buf := []byte{42, 1}
	var b byte
	buf, b = NextByte(buf)
	if b != 42 {
		t.Errorf("NextByte(buf) => %v, want %v", b, 42)
	}
	_, b = NextByte(buf)
	if b != 1 {
		t.Errorf("NextByte(buf) => %v, want %v", b, 1)
	}
}

func TestNextUint32RoundTripsAppendUint32(t *testing.T) {
	buf := AppendUint32(nil, 0xdeadbeef)
	_, n := NextUint32(buf)
	if n != 0xdeadbeef {
		t.Errorf("NextUint32(AppendUint32(...)) => %#x, want %#x", n, 0xdeadbeef)
	}
}

func TestNextInt32Negative(t *testing.T) {
	buf := AppendInt32(nil, -1)
	_, n := NextInt32(buf)
	if n != -1 {
		t.Errorf("NextInt32(AppendInt32(-1)) => %v, want -1", n)
	}
}

func TestNextCString(t *testing.T) {
	buf := AppendCString(nil, "hello")
	buf = AppendCString(buf, "world")

	rest, s, err := NextCString(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "hello" {
		t.Errorf("NextCString => %q, want %q", s, "hello")
	}

	_, s, err = NextCString(rest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "world" {
		t.Errorf("NextCString => %q, want %q", s, "world")
	}
}

func TestNextCStringUnterminated(t *testing.T) {
	_, _, err := NextCString([]byte("no terminator"))
	if err != ErrInvalidCString {
		t.Errorf("NextCString => %v, want %v", err, ErrInvalidCString)
	}
}

func TestSetInt32Patch(t *testing.T) {
	buf := AppendInt32(nil, 0)
	buf = append(buf, "payload"...)
	SetInt32(buf, int32(len(buf)-4))

	_, n := NextInt32(buf)
	if n != 7 {
		t.Errorf("patched length => %v, want 7", n)
	}
}
