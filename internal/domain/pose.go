package domain

// Pose is one of the three head orientations required during enrollment
type Pose string

const (
	PoseCenter Pose = "center"
	PoseLeft   Pose = "left"
	PoseRight  Pose = "right"
)

// PoseSequence is the fixed capture order for an enrollment. Every successful
// enrollment visits exactly these poses, each exactly once.
var PoseSequence = [3]Pose{PoseCenter, PoseLeft, PoseRight}

// Position returns the index of the pose within the enrollment sequence,
// or -1 for an unknown pose.
func (p Pose) Position() int {
	for i, pose := range PoseSequence {
		if pose == p {
			return i
		}
	}
	return -1
}

// CaptureOutcome classifies the result of a single submitted capture
type CaptureOutcome string

const (
	OutcomeAccepted        CaptureOutcome = "ACCEPTED"
	OutcomeNoFace          CaptureOutcome = "REJECTED_NO_FACE"
	OutcomeMultiFace       CaptureOutcome = "REJECTED_MULTI_FACE"
	OutcomeMissingFeatures CaptureOutcome = "REJECTED_FEATURES"
	OutcomeBadSize         CaptureOutcome = "REJECTED_SIZE"
	OutcomeNotLive         CaptureOutcome = "REJECTED_LIVENESS"
	OutcomeBadAngle        CaptureOutcome = "REJECTED_ANGLE"
)

// Accepted reports whether the capture passed every gate
func (o CaptureOutcome) Accepted() bool {
	return o == OutcomeAccepted
}

// GuidanceMessage returns the user-facing instruction for a capture outcome.
// Capture-quality rejections get a specific, actionable message per reason.
func (o CaptureOutcome) GuidanceMessage() string {
	switch o {
	case OutcomeAccepted:
		return "Capture accepted"
	case OutcomeNoFace:
		return "No face detected, make sure your face is visible"
	case OutcomeMultiFace:
		return "More than one face detected, make sure you are alone in the frame"
	case OutcomeMissingFeatures:
		return "Face features not fully visible, remove glasses or obstructions"
	case OutcomeBadSize:
		return "Move closer to or further from the camera"
	case OutcomeNotLive:
		return "Liveness check failed, avoid photos or screens"
	case OutcomeBadAngle:
		return "Head angle does not match the requested pose"
	default:
		return "Capture rejected"
	}
}

// CaptureAttempt records the outcome of one submitted image for one pose.
// Attempts live only inside an enrollment session and are never persisted;
// only the embedding of an accepted attempt survives.
type CaptureAttempt struct {
	Pose    Pose           `json:"pose"`
	Outcome CaptureOutcome `json:"outcome"`
}
