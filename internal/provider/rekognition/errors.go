package rekognition

import (
	"errors"

	"github.com/aws/smithy-go"
)

var (
	// ErrInvalidImage indicates the image failed size or format validation
	ErrInvalidImage = errors.New("invalid image for rekognition")

	// ErrEmbeddingNotSupported indicates an encode request against a provider
	// that cannot expose embedding vectors
	ErrEmbeddingNotSupported = errors.New("rekognition does not expose face embeddings")

	// ErrThrottled indicates the AWS API rate limit was hit
	ErrThrottled = errors.New("rekognition request throttled")
)

const (
	errCodeThrottling            = "ThrottlingException"
	errCodeProvisionedThroughput = "ProvisionedThroughputExceededException"
	errCodeInvalidImageFormat    = "InvalidImageFormatException"
	errCodeImageTooLarge         = "ImageTooLargeException"
)

// translateAPIError maps well-known Rekognition API error codes onto package
// errors; anything else passes through unchanged
func translateAPIError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.ErrorCode() {
	case errCodeThrottling, errCodeProvisionedThroughput:
		return ErrThrottled
	case errCodeInvalidImageFormat, errCodeImageTooLarge:
		return ErrInvalidImage
	default:
		return err
	}
}
