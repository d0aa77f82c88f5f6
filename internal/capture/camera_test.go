package capture

import (
	"errors"
	"testing"
)

func TestCameraConfigFor(t *testing.T) {
	tests := []struct {
		name       string
		vw, vh     float64
		wantHeight int
	}{
		{"16:9 viewport", 1280, 720, 360},
		{"4:3 viewport", 1024, 768, 480},
		{"odd height rounds up to even", 1000, 555, 356},
		{"unknown viewport", 0, 0, 480},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := CameraConfigFor(2, tt.vw, tt.vh)
			if cfg.Width != DefaultWidth || cfg.Height != tt.wantHeight {
				t.Errorf("size = %dx%d, want %dx%d", cfg.Width, cfg.Height, DefaultWidth, tt.wantHeight)
			}
			if cfg.DeviceID != 2 || !cfg.Mirror || cfg.FPS != DefaultFPS {
				t.Errorf("config = %+v", cfg)
			}
		})
	}
}

func TestNewCamera_Defaults(t *testing.T) {
	cam := NewCamera(CameraConfig{DeviceID: 1})
	cfg := cam.Config()
	if cfg.FPS != DefaultFPS || cfg.Width != DefaultWidth || cfg.Height != 480 {
		t.Errorf("Config() = %+v", cfg)
	}
	if cfg.Mirror {
		t.Error("mirroring is opt-in")
	}
	if cam.IsOpen() {
		t.Error("camera should not be open before Open()")
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(CameraConfig{})

	tests := []struct {
		name string
		fps  int
		want int
	}{
		{"raise", 30, 30},
		{"lower", 1, 1},
		{"zero keeps previous", 0, 1},
		{"negative keeps previous", -5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)
			if got := cam.Config().FPS; got != tt.want {
				t.Errorf("FPS = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCamera_NotOpened(t *testing.T) {
	cam := NewCamera(CameraConfig{})

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
	if err := cam.Close(); err != nil {
		t.Errorf("Close() on unopened camera = %v, want nil", err)
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(CameraConfigFor(0, 1280, 720))
	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}
	defer cam.Close()

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() failed: %v", err)
	}
	defer mat.Close()
	if mat.Cols() != DefaultWidth || mat.Rows() != 360 {
		t.Errorf("frame size = %dx%d, want %dx360", mat.Cols(), mat.Rows(), DefaultWidth)
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}
