// Package replay records landmark frames as JSON lines and reads them back,
// so a gesture session can be re-run deterministically.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/ayusman/handsheet/internal/detector"
)

// Record is one line of a recording. TS is the frame time in Unix milliseconds.
type Record struct {
	TS    int64                    `json:"ts"`
	Hands []detector.HandLandmarks `json:"hands"`
}

// Recorder appends frames to a writer.
type Recorder struct {
	mu     sync.Mutex
	w      *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
	n      int
}

// NewRecorder writes to w.
func NewRecorder(w io.Writer) *Recorder {
	bw := bufio.NewWriter(w)
	r := &Recorder{w: bw, enc: json.NewEncoder(bw)}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	return r
}

// Create opens path for appending and returns a Recorder over it.
func Create(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	return NewRecorder(f), nil
}

// Record writes one frame. Errors are logged, never returned, so it can
// sit on the frame hub.
func (r *Recorder) Record(f detector.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return
	}
	if err := r.enc.Encode(Record{TS: f.Timestamp.UnixMilli(), Hands: f.Hands}); err != nil {
		log.Printf("[replay] record frame: %v", err)
		return
	}
	r.n++
}

// Frames reports how many frames were written.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Close flushes buffered frames and closes the underlying file, if any.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return nil
	}
	r.enc = nil
	err := r.w.Flush()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Read decodes frames from rd in order and calls fn for each. Blank lines
// are skipped; a malformed line stops reading with its line number.
func Read(rd io.Reader, fn func(detector.Frame) error) error {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		frame := detector.Frame{Hands: rec.Hands, Timestamp: time.UnixMilli(rec.TS)}
		if err := fn(frame.Clamp()); err != nil {
			return err
		}
	}
	return sc.Err()
}
