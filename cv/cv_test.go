package cv

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/hupe1980/keygraph/model"
)

func TestDefaultORBParams(t *testing.T) {
	p := DefaultORBParams()
	assert.Equal(t, 500, p.Features)
	assert.InDelta(t, 1.2, p.ScaleFactor, 1e-6)
	assert.Equal(t, 8, p.Levels)
	assert.Equal(t, 31, p.EdgeThreshold)
	assert.Equal(t, 0, p.FirstLevel)
	assert.Equal(t, 2, p.WTAK)
	assert.True(t, p.HarrisScore)
	assert.Equal(t, 31, p.PatchSize)
	assert.Equal(t, 20, p.FastThreshold)
}

func TestToKeypoint(t *testing.T) {
	kp := toKeypoint(gocv.KeyPoint{X: 1.5, Y: 2.5, Size: 31, Angle: 90, Response: 0.25, Octave: 3, ClassID: -1})
	assert.Equal(t, model.Keypoint{X: 1.5, Y: 2.5, Size: 31, Angle: 90, Response: 0.25, Octave: 3, ClassID: -1}, kp)
}

func TestORB_DetectSynthetic(t *testing.T) {
	img := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer img.Close()
	for i := range 6 {
		r := image.Rect(20+i*45, 30+(i%3)*50, 50+i*45, 70+(i%3)*50)
		gocv.Rectangle(&img, r, color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
	}

	orb := NewORB(DefaultORBParams())
	defer orb.Close()

	frame := &Frame{Mat: img.Clone()}
	defer frame.Close()

	kps, m, err := orb.Detect(frame)
	require.NoError(t, err)
	require.NotEmpty(t, kps)
	require.NotNil(t, m)
	assert.Equal(t, model.KindBinary, m.Kind())
	assert.Equal(t, 32, m.Cols())
	assert.Equal(t, len(kps), m.Rows())
}

type otherFrame struct{}

func (otherFrame) Close() error { return nil }

func TestORB_UnsupportedFrame(t *testing.T) {
	orb := NewORB(DefaultORBParams())
	defer orb.Close()

	_, _, err := orb.Detect(otherFrame{})
	assert.ErrorIs(t, err, ErrUnsupportedFrame)
}

func TestOpenVideo_Missing(t *testing.T) {
	_, err := OpenVideo("does-not-exist.mp4")
	assert.ErrorIs(t, err, ErrOpenVideo)
}
