package errors

import (
	"errors"
	"net/http"
)

// MapError converts a technical error into a user-friendly AppError.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return &AppError{
			TechnicalMessage: valErr.Message,
			UserMessage:      MsgInvalidRequest,
			Code:             ErrCodeInvalidRequest,
			HTTPStatus:       http.StatusBadRequest,
			OriginalError:    err,
		}
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return &AppError{
			TechnicalMessage: authErr.Error(),
			UserMessage:      MsgServiceUnavailable,
			Code:             ErrCodeAuthFailed,
			HTTPStatus:       http.StatusBadGateway,
			OriginalError:    err,
		}
	}

	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return &AppError{
			TechnicalMessage: upErr.Error(),
			UserMessage:      MsgServiceUnavailable,
			Code:             ErrCodeServiceUnavailable,
			HTTPStatus:       http.StatusBadGateway,
			OriginalError:    err,
		}
	}

	return &AppError{
		TechnicalMessage: err.Error(),
		UserMessage:      MsgInternalError,
		Code:             "INTERNAL_ERROR",
		HTTPStatus:       http.StatusInternalServerError,
		OriginalError:    err,
	}
}
