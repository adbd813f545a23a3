package framesource

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func TestMuxFanOut(t *testing.T) {
	src := io.NopCloser(strings.NewReader("frame-1\nframe-2\n"))
	mux := NewMux(src)

	id1, ch1 := mux.Subscribe()
	id2, ch2 := mux.Subscribe()
	defer mux.Unsubscribe(id1)
	defer mux.Unsubscribe(id2)

	done := make(chan error, 1)
	go func() { done <- mux.Monitor(context.Background()) }()

	for _, ch := range []chan string{ch1, ch2} {
		select {
		case line := <-ch:
			if line != "frame-1" {
				t.Errorf("got %q, want frame-1", line)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for first line")
		}
	}

	// Monitor returns nil at end of stream.
	if err := <-done; err != nil {
		t.Errorf("Monitor returned %v, want nil at EOF", err)
	}
}

func TestMuxSlowSubscriberDoesNotBlock(t *testing.T) {
	lines := strings.Repeat("frame\n", 50)
	mux := NewMux(io.NopCloser(strings.NewReader(lines)))

	// Never drained; its one-slot buffer fills and further sends are skipped.
	id, _ := mux.Subscribe()
	defer mux.Unsubscribe(id)

	done := make(chan error, 1)
	go func() { done <- mux.Monitor(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Monitor returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Monitor blocked on a slow subscriber")
	}
}

func TestMuxMonitorStopsOnContextCancel(t *testing.T) {
	r, _ := io.Pipe() // never produces data
	mux := NewMux(r)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mux.Monitor(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Monitor returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Monitor did not stop on cancel")
	}
}

func TestMuxUnsubscribeClosesChannel(t *testing.T) {
	mux := NewMux(io.NopCloser(strings.NewReader("")))
	id, ch := mux.Subscribe()
	mux.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Error("channel still open after Unsubscribe")
	}
	// Unsubscribing twice is harmless.
	mux.Unsubscribe(id)
}

func TestUDPSourceDeliversDatagrams(t *testing.T) {
	src, err := ListenUDP("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	mux := NewMux(src)
	defer mux.Close()

	id, ch := mux.Subscribe()
	defer mux.Unsubscribe(id)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	conn, err := net.Dial("udp", src.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(`{"camera_id":"cam-1"}`)); err != nil {
		t.Fatal(err)
	}

	select {
	case line := <-ch:
		if line != `{"camera_id":"cam-1"}` {
			t.Errorf("got %q", line)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("datagram never delivered")
	}
}

func TestMockSourceReplays(t *testing.T) {
	src := NewMockSource([]string{"a", "b"}, 10*time.Millisecond)
	defer src.Close()

	mux := NewMux(src)
	id, ch := mux.Subscribe()
	defer mux.Unsubscribe(id)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	seen := make(map[string]int)
	for i := 0; i < 4; i++ {
		select {
		case line := <-ch:
			seen[line]++
		case <-time.After(2 * time.Second):
			t.Fatal("mock source stopped replaying")
		}
	}
	if seen["a"] == 0 || seen["b"] == 0 {
		t.Errorf("replay should cycle through all fixtures, saw %v", seen)
	}
}
