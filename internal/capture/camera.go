// Package capture reads video frames from a camera or a recorded clip using
// GoCV (OpenCV) and gates them on motion.
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture settings.
const (
	DefaultFPS    = 5
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrNotOpen is returned when reading from a source that is not open.
	ErrNotOpen = errors.New("capture source is not open")
	// ErrEndOfStream is returned once a recorded clip has no more frames.
	ErrEndOfStream = errors.New("end of stream")
	// ErrEmptyFrame is returned when the device delivers an empty frame.
	ErrEmptyFrame = errors.New("captured frame is empty")
)

// Camera is a source of video frames.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes it.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// camera reads from a device index or a video file.
type camera struct {
	source string
	file   bool
	width  int
	height int

	mu      sync.Mutex
	capture *gocv.VideoCapture
	fps     int
}

// NewCamera creates a Camera for source. A numeric source is a device index
// ("0" is the default webcam); anything else is opened as a video file.
func NewCamera(source string) Camera {
	return &camera{
		source: source,
		file:   IsFile(source),
		width:  DefaultWidth,
		height: DefaultHeight,
		fps:    DefaultFPS,
	}
}

// IsFile reports whether source names a video file rather than a device.
func IsFile(source string) bool {
	_, err := strconv.Atoi(source)
	return err != nil
}

func (c *camera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	var (
		vc  *gocv.VideoCapture
		err error
	)
	if c.file {
		vc, err = gocv.VideoCaptureFile(c.source)
	} else {
		id, _ := strconv.Atoi(c.source)
		vc, err = gocv.OpenVideoCapture(id)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", c.source, err)
	}

	if !c.file {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(c.width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(c.height))
		vc.Set(gocv.VideoCaptureFPS, float64(c.fps))
	}

	c.capture = vc
	return nil
}

func (c *camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

func (c *camera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		if c.file {
			return nil, ErrEndOfStream
		}
		return nil, fmt.Errorf("read from %s failed", c.source)
	}
	if mat.Empty() {
		mat.Close()
		if c.file {
			return nil, ErrEndOfStream
		}
		return nil, ErrEmptyFrame
	}

	return &mat, nil
}

// SetFPS ignores values <= 0.
func (c *camera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps
	if c.capture != nil && !c.file {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *camera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *camera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}
