// Package capture reads webcam frames with GoCV and turns them into
// landmark frames for the gesture engine.
package capture

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings.
const (
	DefaultFPS   = 15
	DefaultWidth = 640
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEmptyFrame is returned when the device delivers no pixels.
	ErrEmptyFrame = errors.New("camera delivered an empty frame")
)

// Camera is the frame source the capture loop drives.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes the Mat.
	ReadFrame() (*gocv.Mat, error)
	// SetFPS changes the requested frame rate. Values <= 0 are ignored.
	SetFPS(fps int)
}

// CameraConfig describes how frames are captured.
type CameraConfig struct {
	DeviceID int
	// Width and Height are the frame size handed to the detector. Frames the
	// device delivers at another size are resized.
	Width  int
	Height int
	FPS    int
	// Mirror flips frames horizontally so the preview reads like a mirror,
	// matching what a browser tracker reports.
	Mirror bool
}

// CameraConfigFor returns a mirrored capture config whose aspect ratio
// matches a viewport of vw×vh pixels, so normalized landmarks map onto the
// sheet without distortion.
func CameraConfigFor(deviceID int, vw, vh float64) CameraConfig {
	cfg := CameraConfig{DeviceID: deviceID, Width: DefaultWidth, FPS: DefaultFPS, Mirror: true}
	if vw <= 0 || vh <= 0 {
		cfg.Height = DefaultWidth * 3 / 4
		return cfg
	}
	cfg.Height = int(math.Round(DefaultWidth * vh / vw))
	if cfg.Height%2 == 1 {
		cfg.Height++
	}
	return cfg
}

// Webcam is a Camera backed by a local video device.
type Webcam struct {
	mu      sync.Mutex
	config  CameraConfig
	capture *gocv.VideoCapture
}

// NewCamera returns a Webcam. Zero fields in cfg take the defaults.
func NewCamera(cfg CameraConfig) *Webcam {
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		def := CameraConfigFor(cfg.DeviceID, 0, 0)
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	return &Webcam{config: cfg}
}

// Open starts the device at the configured size and rate. Opening an open
// camera is a no-op.
func (c *Webcam) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}
	vc, err := gocv.OpenVideoCapture(c.config.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.config.DeviceID, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(c.config.FPS))
	c.capture = vc
	return nil
}

// Close releases the device. Closing a closed camera is a no-op.
func (c *Webcam) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

// ReadFrame reads one frame, resized to the configured size and mirrored
// when configured.
func (c *Webcam) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrEmptyFrame
	}
	if mat.Cols() != c.config.Width || mat.Rows() != c.config.Height {
		gocv.Resize(mat, &mat, image.Pt(c.config.Width, c.config.Height), 0, 0, gocv.InterpolationLinear)
	}
	if c.config.Mirror {
		gocv.Flip(mat, &mat, 1)
	}
	return &mat, nil
}

// SetFPS requests a new frame rate from the device.
func (c *Webcam) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.config.FPS = fps
	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// Config returns the current capture settings.
func (c *Webcam) Config() CameraConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// IsOpen reports whether the device is open.
func (c *Webcam) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}
