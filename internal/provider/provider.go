package provider

import "context"

// Landmark names the core pipeline relies on. Providers may report more.
const (
	LandmarkLeftEye    = "left_eye"
	LandmarkRightEye   = "right_eye"
	LandmarkNoseBridge = "nose_bridge"
)

// FaceProvider define a interface para provedores de análise facial
type FaceProvider interface {
	// DetectFaces detecta faces na imagem e retorna regiões, landmarks e pose
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)

	// EncodeFace extrai o embedding da face dentro da região informada.
	// Retorna um vetor de dimensão fixa, determinístico por imagem.
	EncodeFace(ctx context.Context, image []byte, box BoundingBox) ([]float64, error)
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Landmarks   LandmarkSet `json:"landmarks,omitempty"`
	Confidence  float64     `json:"confidence"`
	HeadPose    *HeadPose   `json:"head_pose,omitempty"`
}

// HeadPose represents face orientation angles in degrees
type HeadPose struct {
	Pitch float64 `json:"pitch"` // up/down rotation
	Roll  float64 `json:"roll"`  // tilted rotation
	Yaw   float64 `json:"yaw"`   // left/right rotation, negative = subject's left
}

// BoundingBox is the face region in pixel coordinates within the source image
type BoundingBox struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

func (b BoundingBox) Width() float64 {
	return b.Right - b.Left
}

func (b BoundingBox) Height() float64 {
	return b.Bottom - b.Top
}

// Point is a 2D pixel coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LandmarkSet maps a landmark name to its ordered points
type LandmarkSet map[string][]Point

// Has reports whether every named landmark is present with at least one point
func (l LandmarkSet) Has(names ...string) bool {
	for _, name := range names {
		if len(l[name]) == 0 {
			return false
		}
	}
	return true
}

// Centroid returns the mean point of a named landmark, and whether it exists
func (l LandmarkSet) Centroid(name string) (Point, bool) {
	points := l[name]
	if len(points) == 0 {
		return Point{}, false
	}

	var sum Point
	for _, p := range points {
		sum.X += p.X
		sum.Y += p.Y
	}
	n := float64(len(points))
	return Point{X: sum.X / n, Y: sum.Y / n}, true
}
