package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

var errEmptyFrame = errors.New("empty frame")

// CaptureSource reads BGR frames from a camera index or a stream/file URL.
type CaptureSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	source  string
	nextID  int64
}

// OpenCapture opens source and asks it for fps frames per second. Files and
// streams may ignore the request.
func OpenCapture(source string, fps int) (*CaptureSource, error) {
	// Numeric sources are device indices.
	capture, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open video source %s: %w", source, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video source %s not opened", source)
	}
	if fps > 0 {
		capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}

	log.Info().
		Str("source", source).
		Float64("fps", capture.Get(gocv.VideoCaptureFPS)).
		Float64("width", capture.Get(gocv.VideoCaptureFrameWidth)).
		Float64("height", capture.Get(gocv.VideoCaptureFrameHeight)).
		Msg("Video source opened")

	return &CaptureSource{capture: capture, mat: gocv.NewMat(), source: source}, nil
}

func (c *CaptureSource) Read(ctx context.Context) (models.Frame, error) {
	if err := ctx.Err(); err != nil {
		return models.Frame{}, err
	}
	if ok := c.capture.Read(&c.mat); !ok {
		return models.Frame{}, io.EOF
	}
	if c.mat.Empty() {
		return models.Frame{}, errEmptyFrame
	}

	c.nextID++
	return models.Frame{
		ID:        c.nextID,
		Data:      c.mat.ToBytes(),
		Width:     c.mat.Cols(),
		Height:    c.mat.Rows(),
		Timestamp: time.Now(),
	}, nil
}

func (c *CaptureSource) Close() error {
	c.mat.Close()
	return c.capture.Close()
}
