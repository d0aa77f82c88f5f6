package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// fakeCamera hands out blank frames.
type fakeCamera struct {
	mu     sync.Mutex
	open   bool
	fps    int
	failOn int
	reads  int
}

func (c *fakeCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	return nil
}

func (c *fakeCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *fakeCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if !c.open {
		return nil, ErrCameraNotOpen
	}
	if c.failOn > 0 && c.reads == c.failOn {
		return nil, errors.New("device busy")
	}
	mat := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3)
	return &mat, nil
}

func (c *fakeCamera) SetFPS(fps int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *fakeCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}
