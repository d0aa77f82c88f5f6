package replay

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/handsheet/internal/detector"
)

func TestRecordThenRead(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf)

	start := time.UnixMilli(1_700_000_000_000)
	rec.Record(detector.Frame{Hands: []detector.HandLandmarks{detector.PinchAt(0.4, 0.5)}, Timestamp: start})
	rec.Record(detector.Frame{Timestamp: start.Add(33 * time.Millisecond)})
	if err := rec.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	rec.Record(detector.Frame{Timestamp: start.Add(time.Second)})
	if rec.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", rec.Frames())
	}

	var frames []detector.Frame
	err := Read(&buf, func(f detector.Frame) error {
		frames = append(frames, f)
		return nil
	})
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("read %d frames, want 2", len(frames))
	}
	if !frames[0].Timestamp.Equal(start) || len(frames[0].Hands) != 1 {
		t.Errorf("frame 0 = %+v", frames[0])
	}
	want := detector.PinchAt(0.4, 0.5).Points[detector.IndexTip]
	if got := frames[0].Hands[0].Points[detector.IndexTip]; got != want {
		t.Errorf("index tip = %+v, want %+v", got, want)
	}
	if frames[1].Timestamp.Sub(start) != 33*time.Millisecond || len(frames[1].Hands) != 0 {
		t.Errorf("frame 1 = %+v", frames[1])
	}
}

func TestRead_Errors(t *testing.T) {
	t.Run("malformed line", func(t *testing.T) {
		in := "{\"ts\":1,\"hands\":[]}\n\nnot json\n"
		err := Read(strings.NewReader(in), func(detector.Frame) error { return nil })
		if err == nil || !strings.Contains(err.Error(), "line 3") {
			t.Errorf("error = %v, want line 3", err)
		}
	})

	t.Run("callback stops reading", func(t *testing.T) {
		stop := errors.New("stop")
		calls := 0
		in := "{\"ts\":1}\n{\"ts\":2}\n"
		err := Read(strings.NewReader(in), func(detector.Frame) error {
			calls++
			return stop
		})
		if !errors.Is(err, stop) || calls != 1 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})
}

func TestCreate_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	for i := 0; i < 2; i++ {
		rec, err := Create(path)
		if err != nil {
			t.Fatalf("Create error: %v", err)
		}
		rec.Record(detector.Frame{Timestamp: time.UnixMilli(int64(i))})
		if err := rec.Close(); err != nil {
			t.Fatalf("Close error: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("file has %d lines, want 2", n)
	}
}
