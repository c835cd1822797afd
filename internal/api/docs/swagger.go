package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// StartEnrollmentResponse represents the response for a newly opened enrollment sequence
type StartEnrollmentResponse struct {
	SessionID    string `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	SubjectID    string `json:"subject_id" example:"user-123"`
	ExpectedPose string `json:"expected_pose" example:"center"`
	ExpiresAt    string `json:"expires_at" example:"2024-01-01T00:10:00Z"`
}

// SubmitCaptureResponse represents the response for one pose capture submission
type SubmitCaptureResponse struct {
	Pose         string `json:"pose" example:"center"`
	Outcome      string `json:"outcome" example:"ACCEPTED"`
	State        string `json:"state" example:"AWAITING_LEFT"`
	ExpectedPose string `json:"expected_pose,omitempty" example:"left"`
	Guidance     string `json:"guidance,omitempty" example:"Turn your head slightly to the left"`
}

// LoginDecisionResponse represents the response for a verification attempt
type LoginDecisionResponse struct {
	Verified   bool    `json:"verified" example:"true"`
	Confidence float64 `json:"confidence" example:"0.92"`
	Distance   float64 `json:"distance" example:"0.04"`
	LatencyMs  int64   `json:"latency_ms" example:"45"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "PoseGuard Verification API",
		Version:     "v1.0.0",
		Description: "Multi-pose anti-spoofing enrollment and 1:1 face verification API",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/enrollments - Start enrollment sequence
		endpoint.New(
			endpoint.POST,
			"/enrollments",
			endpoint.WithTags("Enrollments"),
			endpoint.WithSummary("Start an enrollment sequence"),
			endpoint.WithDescription("Opens a new three-pose enrollment sequence (center, left, right) for the given subject_id. The session expires if no capture completes it in time."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StartEnrollmentResponse{}, "201", "Enrollment session opened"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "subject_id is required"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/enrollments/:id/captures - Submit pose capture
		endpoint.New(
			endpoint.POST,
			"/enrollments/{id}/captures",
			endpoint.WithTags("Enrollments"),
			endpoint.WithSummary("Submit one pose capture"),
			endpoint.WithDescription("Submits one image for the pose the sequence is currently awaiting. A rejected capture keeps the sequence in place and returns guidance; three accepted captures complete the sequence and store the template."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Enrollment session UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SubmitCaptureResponse{}, "200", "Capture processed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Enrollment session not found or expired"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "SESSION_FINISHED", Message: "Enrollment session already finished"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Image could not be decoded"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// DELETE /v1/enrollments/:id - Abandon enrollment
		endpoint.New(
			endpoint.DELETE,
			"/enrollments/{id}",
			endpoint.WithTags("Enrollments"),
			endpoint.WithSummary("Abandon an enrollment sequence"),
			endpoint.WithDescription("Discards an in-flight enrollment session without persisting anything"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Enrollment session UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Session discarded"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Enrollment session not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/login - Verify probe against stored template
		endpoint.New(
			endpoint.POST,
			"/login",
			endpoint.WithTags("Login"),
			endpoint.WithSummary("Verify a probe image against the stored template"),
			endpoint.WithDescription("Runs the probe through the capture and liveness gates, then performs a 1:1 match against the subject's enrolled template"),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(LoginDecisionResponse{}, "200", "Decision made"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "subject_id and image are required"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "TEMPLATE_NOT_FOUND", Message: "No template enrolled for subject"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "REJECTED_NO_FACE", Message: "No face detected in image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "REJECTED_LIVENESS", Message: "Liveness check failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// DELETE /v1/templates/:subject_id - Delete template
		endpoint.New(
			endpoint.DELETE,
			"/templates/{subject_id}",
			endpoint.WithTags("Templates"),
			endpoint.WithSummary("Delete a stored template"),
			endpoint.WithDescription("Deletes the biometric template for the given subject_id (LGPD compliance)"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("subject_id", parameter.Path, parameter.WithDescription("Subject identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Template deleted successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "TEMPLATE_NOT_FOUND", Message: "No template enrolled for subject"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
