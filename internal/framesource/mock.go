package framesource

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"
)

// NewMockSource returns a stream that replays the given frame lines on a
// ticker, cycling forever. Used in dev mode when no perception adapter is
// feeding the engine.
func NewMockSource(lines []string, interval time.Duration) io.ReadCloser {
	r, w := io.Pipe()

	go func() {
		defer w.Close()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		i := 0
		for range ticker.C {
			line := lines[i%len(lines)]
			if _, err := fmt.Fprintln(w, line); err != nil {
				// reader side closed
				return
			}
			i++
		}
	}()

	return r
}

// LoadFixtures reads newline-delimited JSON frames from path, skipping blank
// lines, for replay through NewMockSource.
func LoadFixtures(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture file: %w", err)
	}
	defer f.Close()

	var lines []string
	scan := bufio.NewScanner(f)
	scan.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	for scan.Scan() {
		if line := scan.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("fixture file %s contains no frames", path)
	}
	return lines, nil
}
