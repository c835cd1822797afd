package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img      string `json:"img"`      // base64 encoded image
	Model    string `json:"model"`    // "Facenet512", "VGG-Face", etc
	Detector string `json:"detector"` // "retinaface", "mtcnn", etc
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding  []float64  `json:"embedding"`
	FacialArea FacialArea `json:"facial_area"`
}

// FacialArea is the detected face rectangle plus the eye landmarks the
// retinaface detector reports as [x, y] pairs (null when not found)
type FacialArea struct {
	X        int       `json:"x"`
	Y        int       `json:"y"`
	W        int       `json:"w"`
	H        int       `json:"h"`
	LeftEye  []float64 `json:"left_eye,omitempty"`
	RightEye []float64 `json:"right_eye,omitempty"`
}
