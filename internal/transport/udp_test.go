package transport

import (
	"bytes"
	"testing"
	"time"
)

func newLoopbackPair(t *testing.T) (*UDP, *UDP) {
	t.Helper()
	a, err := New(0, "255.255.255.255")
	if err != nil {
		t.Fatalf("bind a: %v", err)
	}
	b, err := New(0, "255.255.255.255")
	if err != nil {
		a.Close()
		t.Fatalf("bind b: %v", err)
	}
	a.Start()
	b.Start()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

func TestUnicastRoundTrip(t *testing.T) {
	a, b := newLoopbackPair(t)
	payload := []byte("TYPE:POST\nCONTENT:hi\n\n")
	if err := a.SendUnicast(payload, "127.0.0.1", b.Port()); err != nil {
		t.Fatalf("send: %v", err)
	}
	dg, ok := b.Receive(2 * time.Second)
	if !ok {
		t.Fatalf("expected datagram before timeout")
	}
	if !bytes.Equal(dg.Data, payload) {
		t.Fatalf("payload mismatch: %q", dg.Data)
	}
	if dg.Addr == nil || dg.Addr.Port != a.Port() {
		t.Fatalf("source address not reported: %v", dg.Addr)
	}
}

func TestReceiveTimeoutReturnsFalse(t *testing.T) {
	_, b := newLoopbackPair(t)
	start := time.Now()
	if _, ok := b.Receive(50 * time.Millisecond); ok {
		t.Fatalf("expected timeout")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("receive blocked far past its timeout")
	}
}

func TestCloseUnblocksReceive(t *testing.T) {
	tr, err := New(0, "255.255.255.255")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	tr.Start()
	done := make(chan bool, 1)
	go func() {
		_, ok := tr.Receive(5 * time.Second)
		done <- ok
	}()
	time.Sleep(20 * time.Millisecond)
	tr.Close()
	select {
	case ok := <-done:
		if ok {
			t.Fatalf("closed transport must not deliver data")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("receive did not unblock on close")
	}
}

func TestSendUnicastRejectsBadAddress(t *testing.T) {
	tr, _ := newLoopbackPair(t)
	if err := tr.SendUnicast([]byte("x"), "not-an-ip", 9); err == nil {
		t.Fatalf("expected error for invalid address")
	}
}
