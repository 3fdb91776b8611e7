package detection

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

// isJPEGData checks if the byte slice contains JPEG data by checking magic bytes
func isJPEGData(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	// JPEG magic bytes: FF D8
	return data[0] == 0xFF && data[1] == 0xD8
}

// frameToMat wraps raw BGR frame bytes in a Mat. The caller closes it.
func frameToMat(frame models.Frame) (gocv.Mat, error) {
	if len(frame.Data) == 0 {
		return gocv.Mat{}, fmt.Errorf("empty frame data")
	}
	if isJPEGData(frame.Data) {
		mat, err := gocv.IMDecode(frame.Data, gocv.IMReadColor)
		if err != nil {
			return gocv.Mat{}, fmt.Errorf("failed to decode JPEG frame: %w", err)
		}
		return mat, nil
	}
	if frame.Width <= 0 || frame.Height <= 0 || frame.Width*frame.Height*3 != len(frame.Data) {
		return gocv.Mat{}, fmt.Errorf("frame %dx%d does not match %d BGR bytes", frame.Width, frame.Height, len(frame.Data))
	}
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to create Mat from BGR data: %w", err)
	}
	return mat, nil
}

// frameToJPEG encodes a frame for the remote detector. JPEG input is passed through.
func frameToJPEG(frame models.Frame, quality int) ([]byte, error) {
	if isJPEGData(frame.Data) {
		return frame.Data, nil
	}
	mat, err := frameToMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode BGR as JPEG: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close.
	return append([]byte(nil), buf.GetBytes()...), nil
}
