// Package cv adapts OpenCV (through gocv) to the extract interfaces.
//
// VideoSource decodes a video file frame by frame and ORB detects keypoints
// and computes binary descriptors on the grayscale image:
//
//	src, err := cv.OpenVideo("input.mp4")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	orb := cv.NewORB(cv.DefaultORBParams())
//	defer orb.Close()
//
//	snap, stats, err := extract.Run(ctx, src, orb)
//
// The package needs OpenCV 4 and cgo.
package cv
