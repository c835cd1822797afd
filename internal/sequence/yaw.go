package sequence

import (
	"github.com/veriface-labs/poseguard/internal/provider"
)

// maxLandmarkYaw is the yaw magnitude (degrees) assigned when the nose bridge
// projects a full inter-eye span away from the eye midpoint. The mapping is a
// coarse geometric proxy, good enough to confirm that a requested pose was
// actually produced.
const maxLandmarkYaw = 90.0

// EstimateYaw returns the head yaw angle in degrees for a detected face.
// Negative yaw means the subject turned to their left, positive to their
// right, zero is frontal.
//
// When the provider reports a native head pose (Rekognition does) that value
// wins; otherwise yaw is estimated from the horizontal displacement of the
// nose bridge relative to the eye midpoint, normalized by the inter-eye span.
func EstimateYaw(face provider.DetectedFace) (float64, bool) {
	if face.HeadPose != nil {
		return face.HeadPose.Yaw, true
	}

	left, okL := face.Landmarks.Centroid(provider.LandmarkLeftEye)
	right, okR := face.Landmarks.Centroid(provider.LandmarkRightEye)
	nose, okN := face.Landmarks.Centroid(provider.LandmarkNoseBridge)
	if !okL || !okR || !okN {
		return 0, false
	}

	eyeSpan := right.X - left.X
	if eyeSpan <= 0 {
		return 0, false
	}

	// The subject's left is the camera's right: a nose displaced toward
	// image-right means a leftward turn, hence the negated sign.
	offset := (nose.X - (left.X+right.X)/2) / eyeSpan
	if offset > 1 {
		offset = 1
	}
	if offset < -1 {
		offset = -1
	}

	return -offset * maxLandmarkYaw, true
}

// AngleBand is an inclusive yaw interval in degrees
type AngleBand struct {
	Min float64
	Max float64
}

// Contains reports whether the yaw falls inside the band
func (b AngleBand) Contains(yaw float64) bool {
	return yaw >= b.Min && yaw <= b.Max
}
