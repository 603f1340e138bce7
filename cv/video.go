package cv

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gocv.io/x/gocv"

	"github.com/hupe1980/keygraph/extract"
)

// ErrOpenVideo is returned when a video cannot be opened.
var ErrOpenVideo = errors.New("cv: cannot open video")

// Frame wraps a decoded image.
type Frame struct {
	Mat gocv.Mat
}

// Close releases the image buffer.
func (f *Frame) Close() error { return f.Mat.Close() }

var _ extract.FrameSource = (*VideoSource)(nil)

// VideoSource reads frames from a video file.
type VideoSource struct {
	capture *gocv.VideoCapture
	path    string
}

// OpenVideo opens a video file for sequential decoding.
func OpenVideo(path string) (*VideoSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpenVideo, path, err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, fmt.Errorf("%w %s", ErrOpenVideo, path)
	}
	return &VideoSource{capture: capture, path: path}, nil
}

// FrameCount returns the container's frame count estimate, 0 if unknown.
func (v *VideoSource) FrameCount() int {
	return int(v.capture.Get(gocv.VideoCaptureFrameCount))
}

// Next decodes the next frame. It returns io.EOF at the end of the stream.
func (v *VideoSource) Next(ctx context.Context) (extract.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mat := gocv.NewMat()
	if ok := v.capture.Read(&mat); !ok || mat.Empty() {
		_ = mat.Close()
		return nil, io.EOF
	}
	return &Frame{Mat: mat}, nil
}

// Close releases the capture.
func (v *VideoSource) Close() error {
	return v.capture.Close()
}
