// Package framesource delivers perception frames to the engine. A Mux reads
// newline-delimited JSON frames from a single stream and fans each line out
// to any number of subscribers. Streams arrive over UDP from the perception
// adapter, or from a fixture file replayed on a timer in dev mode.
package framesource

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"io"
	"sync"
)

// maxFrameSize bounds one frame line. Crowded frames carry dozens of
// detections with full pose data, so the scanner buffer is generous.
const maxFrameSize = 1 << 20

// Mux fans lines from a frame stream out to subscribers. Subscribers that
// cannot keep up miss lines rather than stalling the stream; the engine
// always prefers a fresh frame over a late one.
type Mux struct {
	src          io.ReadCloser
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// NewMux creates a Mux reading from the given frame stream.
func NewMux(src io.ReadCloser) *Mux {
	return &Mux{
		src:         src,
		subscribers: make(map[string]chan string),
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe creates a new channel for receiving frame lines. The returned ID
// identifies the channel when unsubscribing.
func (m *Mux) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string, 1)
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	m.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (m *Mux) Unsubscribe(id string) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	if ch, ok := m.subscribers[id]; ok {
		close(ch)
		delete(m.subscribers, id)
	}
}

// Monitor reads lines from the frame stream and sends them to subscribers.
// It returns when the stream ends, the stream errors, or ctx is cancelled.
func (m *Mux) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(m.src)
	scan.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking scan.Scan runs in its own goroutine so the outer loop
	// can await lines and context cancellation together.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				if err := scan.Err(); err != nil {
					return err
				}
				return nil
			}

			m.closingMu.Lock()
			if m.closing {
				m.closingMu.Unlock()
				return nil
			}
			m.closingMu.Unlock()

			m.subscriberMu.Lock()
			for _, ch := range m.subscribers {
				select {
				case ch <- line:
				default:
					// skip subscribers that are not draining
				}
			}
			m.subscriberMu.Unlock()
		}
	}
}

// Close closes all subscribed channels and the underlying stream.
func (m *Mux) Close() error {
	m.closingMu.Lock()
	m.closing = true
	m.closingMu.Unlock()

	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
	return m.src.Close()
}
