package errors

import "testing"

func TestWrap(t *testing.T) {
	err := Wrap(errWrapped, "Hello, Wrapped!")
	if err.Error() != "Hello, Wrapped!, err: wrapped error" {
		t.Fatalf("error mismatch: %+v", err)
	}
	if !Is(err, errWrapped) {
		t.Fatalf("wrapped error lost its cause")
	}
}

func TestWrapf(t *testing.T) {
	err := Wrapf(errWrapped, "stream %q", "raw/binance/btcusdt@trade")
	if err.Error() != `stream "raw/binance/btcusdt@trade", err: wrapped error` {
		t.Fatalf("error mismatch: %+v", err)
	}
	if Wrapf(nil, "x %d", 1) != nil {
		t.Fatalf("wrapping nil must stay nil")
	}
	if !Is(Wrap(err, "outer"), errWrapped) {
		t.Fatalf("nested wrap lost its cause")
	}
}
