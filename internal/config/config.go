package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Provider
	FaceProvider string `envconfig:"FACE_PROVIDER" default:"deepface"`
	DeepFaceURL  string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`

	// ProviderTimeout bounds each detect/encode call
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"10s"`

	// Security
	APIKey string `envconfig:"API_KEY" required:"true"`

	// Match decision
	MatchTolerance      float64 `envconfig:"MATCH_TOLERANCE" default:"0.5"`
	SamePersonThreshold float64 `envconfig:"SAME_PERSON_THRESHOLD" default:"0.6"`

	// Liveness thresholds (heuristic operating points, tunable)
	LivenessTextureMin float64 `envconfig:"LIVENESS_TEXTURE_MIN" default:"100"`
	LivenessEdgeMin    float64 `envconfig:"LIVENESS_EDGE_MIN" default:"10"`

	// Capture size gates
	FaceRatioMin float64 `envconfig:"FACE_RATIO_MIN" default:"0.1"`
	FaceRatioMax float64 `envconfig:"FACE_RATIO_MAX" default:"0.9"`

	// Pose angle bands (degrees)
	PoseCenterMaxAbsYaw float64 `envconfig:"POSE_CENTER_MAX_ABS_YAW" default:"15"`
	PoseTurnTargetYaw   float64 `envconfig:"POSE_TURN_TARGET_YAW" default:"30"`
	PoseTurnBand        float64 `envconfig:"POSE_TURN_BAND" default:"15"`

	// Enrollment sessions
	EnrollmentSessionTTL time.Duration `envconfig:"ENROLLMENT_SESSION_TTL" default:"10m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
