package tagger

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// ErrUnsupportedService is reported per resource when a fact names a
// service outside the backend set.
const ErrUnsupportedService = "Unsupported service"

// errorCode returns the AWS API error code, or the raw error text when the
// failure never reached the service.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return err.Error()
}

// errorCodeMessage returns "code: message" for AWS API errors.
func errorCodeMessage(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err.Error()
}
