package eventbus

import (
	"strings"
	"sync"
)

const DefaultLogLines = 500

// LogRing keeps the most recent log lines and streams new ones to
// subscribers. It is an io.Writer so it can be teed into the logger output.
type LogRing struct {
	mu    sync.Mutex
	lines []string
	start int
	size  int
	bus   *Bus[string]
}

func NewLogRing(capacity int) *LogRing {
	if capacity <= 0 {
		capacity = DefaultLogLines
	}
	return &LogRing{
		lines: make([]string, capacity),
		bus:   New[string](DefaultBuffer),
	}
}

func (r *LogRing) Write(p []byte) (int, error) {
	text := strings.TrimRight(string(p), "\n")
	if text == "" {
		return len(p), nil
	}

	for _, line := range strings.Split(text, "\n") {
		r.push(line)
		r.bus.Publish(line)
	}
	return len(p), nil
}

func (r *LogRing) push(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	capacity := len(r.lines)
	idx := (r.start + r.size) % capacity
	r.lines[idx] = line
	if r.size < capacity {
		r.size++
		return
	}
	r.start = (r.start + 1) % capacity
}

// Lines returns the buffered lines, oldest first.
func (r *LogRing) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.lines[(r.start+i)%len(r.lines)]
	}
	return out
}

func (r *LogRing) Subscribe() (<-chan string, func()) {
	return r.bus.Subscribe()
}
