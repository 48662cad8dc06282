package deployment

import (
	"errors"
	"fmt"
)

// Code classifies a deployment failure. The values follow the deployment
// admin error codes of the OSGi compendium.
type Code int

const (
	CodeCancelled                Code = 401
	CodeNotAJar                  Code = 404
	CodeOrderError               Code = 450
	CodeMissingHeader            Code = 451
	CodeBadHeader                Code = 452
	CodeMissingFixpackTarget     Code = 453
	CodeMissingBundle            Code = 454
	CodeMissingResource          Code = 455
	CodeSigningError             Code = 456
	CodeBundleNameError          Code = 457
	CodeForeignCustomizer        Code = 458
	CodeBundleSharingViolation   Code = 460
	CodeResourceSharingViolation Code = 461
	CodeCommitError              Code = 462
	CodeOtherError               Code = 463
	CodeProcessorNotFound        Code = 464
	CodeTimeout                  Code = 465
)

var codeNames = map[Code]string{
	CodeCancelled:                "CANCELLED",
	CodeNotAJar:                  "NOT_A_JAR",
	CodeOrderError:               "ORDER_ERROR",
	CodeMissingHeader:            "MISSING_HEADER",
	CodeBadHeader:                "BAD_HEADER",
	CodeMissingFixpackTarget:     "MISSING_FIXPACK_TARGET",
	CodeMissingBundle:            "MISSING_BUNDLE",
	CodeMissingResource:          "MISSING_RESOURCE",
	CodeSigningError:             "SIGNING_ERROR",
	CodeBundleNameError:          "BUNDLE_NAME_ERROR",
	CodeForeignCustomizer:        "FOREIGN_CUSTOMIZER",
	CodeBundleSharingViolation:   "BUNDLE_SHARING_VIOLATION",
	CodeResourceSharingViolation: "RESOURCE_SHARING_VIOLATION",
	CodeCommitError:              "COMMIT_ERROR",
	CodeOtherError:               "OTHER_ERROR",
	CodeProcessorNotFound:        "PROCESSOR_NOT_FOUND",
	CodeTimeout:                  "TIMEOUT",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CODE_%d", int(c))
}

// DeploymentError is the single error type a session reports to its caller.
type DeploymentError struct {
	Code    Code
	Message string
	Cause   error
}

func NewError(code Code, message string, cause error) *DeploymentError {
	return &DeploymentError{Code: code, Message: message, Cause: cause}
}

func (e *DeploymentError) Error() string {
	msg := fmt.Sprintf("deployment failed (%s)", e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DeploymentError) Unwrap() error {
	return e.Cause
}

// ErrorCode extracts the deployment code from err.
func ErrorCode(err error) (Code, bool) {
	var de *DeploymentError
	if errors.As(err, &de) {
		return de.Code, true
	}
	return 0, false
}

// IsCancelled reports whether err is a cancellation.
func IsCancelled(err error) bool {
	code, ok := ErrorCode(err)
	return ok && code == CodeCancelled
}

// asDeploymentError converts an arbitrary command failure into a DeploymentError.
func asDeploymentError(err error) *DeploymentError {
	var de *DeploymentError
	if errors.As(err, &de) {
		return de
	}
	return NewError(CodeOtherError, "", err)
}

func cancelledError() *DeploymentError {
	return NewError(CodeCancelled, "deployment session was cancelled", nil)
}
