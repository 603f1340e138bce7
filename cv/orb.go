package cv

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/hupe1980/keygraph/extract"
	"github.com/hupe1980/keygraph/model"
)

// ErrUnsupportedFrame is returned when Detect receives a frame from another source.
var ErrUnsupportedFrame = errors.New("cv: unsupported frame type")

// ORBParams mirrors cv::ORB::create.
type ORBParams struct {
	Features      int
	ScaleFactor   float32
	Levels        int
	EdgeThreshold int
	FirstLevel    int
	WTAK          int
	// HarrisScore ranks features by the Harris measure instead of FAST.
	HarrisScore   bool
	PatchSize     int
	FastThreshold int
}

// DefaultORBParams returns 500 features over 8 levels at scale 1.2 with Harris scoring.
func DefaultORBParams() ORBParams {
	return ORBParams{
		Features:      500,
		ScaleFactor:   1.2,
		Levels:        8,
		EdgeThreshold: 31,
		FirstLevel:    0,
		WTAK:          2,
		HarrisScore:   true,
		PatchSize:     31,
		FastThreshold: 20,
	}
}

var _ extract.Detector = (*ORB)(nil)

// ORB detects keypoints and computes 32-byte binary descriptors.
type ORB struct {
	orb  gocv.ORB
	gray gocv.Mat
}

// NewORB creates an ORB detector.
func NewORB(p ORBParams) *ORB {
	score := gocv.ORBScoreTypeFAST
	if p.HarrisScore {
		score = gocv.ORBScoreTypeHarris
	}
	return &ORB{
		orb: gocv.NewORBWithParams(p.Features, p.ScaleFactor, p.Levels, p.EdgeThreshold,
			p.FirstLevel, p.WTAK, score, p.PatchSize, p.FastThreshold),
		gray: gocv.NewMat(),
	}
}

// Detect runs ORB on the grayscale version of frame.
func (o *ORB) Detect(frame extract.Frame) ([]model.Keypoint, *model.DescriptorMatrix, error) {
	f, ok := frame.(*Frame)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %T", ErrUnsupportedFrame, frame)
	}

	src := f.Mat
	if f.Mat.Channels() > 1 {
		if err := gocv.CvtColor(f.Mat, &o.gray, gocv.ColorBGRToGray); err != nil {
			return nil, nil, fmt.Errorf("cv: grayscale: %w", err)
		}
		src = o.gray
	}

	mask := gocv.NewMat()
	defer mask.Close()

	kps, desc := o.orb.DetectAndCompute(src, mask)
	defer desc.Close()

	if len(kps) == 0 || desc.Empty() {
		return nil, nil, nil
	}

	m, err := toMatrix(desc)
	if err != nil {
		return nil, nil, err
	}

	out := make([]model.Keypoint, len(kps))
	for i, kp := range kps {
		out[i] = toKeypoint(kp)
	}
	return out, m, nil
}

// Close releases the detector.
func (o *ORB) Close() error {
	_ = o.gray.Close()
	return o.orb.Close()
}

func toKeypoint(kp gocv.KeyPoint) model.Keypoint {
	return model.Keypoint{
		X:        float32(kp.X),
		Y:        float32(kp.Y),
		Size:     float32(kp.Size),
		Angle:    float32(kp.Angle),
		Response: float32(kp.Response),
		Octave:   int32(kp.Octave),
		ClassID:  int32(kp.ClassID),
	}
}

// toMatrix copies an OpenCV descriptor matrix (CV_8U or CV_32F) into model form.
func toMatrix(desc gocv.Mat) (*model.DescriptorMatrix, error) {
	rows, cols := desc.Rows(), desc.Cols()
	switch desc.Type() {
	case gocv.MatTypeCV8U:
		data, err := desc.DataPtrUint8()
		if err != nil {
			return nil, err
		}
		return model.NewBinaryMatrix(cols, append([]byte(nil), data[:rows*cols]...))
	case gocv.MatTypeCV32F:
		data, err := desc.DataPtrFloat32()
		if err != nil {
			return nil, err
		}
		return model.NewFloatMatrix(cols, append([]float32(nil), data[:rows*cols]...))
	default:
		return nil, fmt.Errorf("cv: unsupported descriptor type %v", desc.Type())
	}
}
