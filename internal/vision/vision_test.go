package vision

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/ayusman/handsheet/internal/detector"
)

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]detector.HandLandmarks{detector.PinchAt(0.4, 0.4), detector.FistAt(0.6, 0.5)})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("jpeg-bytes")

	if err := writeFrame(&buf, payload); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}

	raw := buf.Bytes()
	if got := binary.BigEndian.Uint32(raw[:4]); got != uint32(len(payload)) {
		t.Errorf("length prefix = %d, want %d", got, len(payload))
	}
	if string(raw[4:]) != string(payload) {
		t.Errorf("payload = %q, want %q", raw[4:], payload)
	}
}

func TestReadHands(t *testing.T) {
	t.Run("truncates to max hands", func(t *testing.T) {
		line := `{"hands":[{"points":[{"x":0.1,"y":0.2,"z":0}],"handedness":"Left","score":0.9},{"points":[]},{"points":[]}]}` + "\n"

		hands, err := readHands(bufio.NewReader(strings.NewReader(line)), 2)
		if err != nil {
			t.Fatalf("readHands: %v", err)
		}
		if len(hands) != 2 {
			t.Fatalf("expected 2 hands, got %d", len(hands))
		}
		if hands[0].Points[detector.Wrist].X != 0.1 || hands[0].Handedness != "Left" {
			t.Errorf("unexpected first hand: %+v", hands[0].Points[detector.Wrist])
		}
	})

	t.Run("surfaces service errors", func(t *testing.T) {
		line := `{"error":"model not loaded"}` + "\n"

		if _, err := readHands(bufio.NewReader(strings.NewReader(line)), 2); err == nil {
			t.Error("expected error from service error field")
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		if _, err := readHands(bufio.NewReader(strings.NewReader("{oops\n")), 2); err == nil {
			t.Error("expected parse error")
		}
	})
}
