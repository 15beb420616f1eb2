package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/dataset"
	"github.com/seqvault/seqvault/internal/db/store"
	"github.com/seqvault/seqvault/internal/security"
	"github.com/seqvault/seqvault/internal/web/handler"
	datasethandler "github.com/seqvault/seqvault/internal/web/handler/dataset"
)

// ErrorResponse is the json body of failed requests.
type ErrorResponse struct {
	Message string                    `json:"err_msg"`
	Code    int                       `json:"err_code"`
	Fields  []handler.ValidationError `json:"fields,omitempty"`
}

// StatusFor maps an error returned by a handler to its http status.
func StatusFor(err error) int {
	var (
		fiberErr *fiber.Error
		badReq   *handler.BadRequestError
	)

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &badReq):
		return fiber.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, security.ErrMalformedID),
		errors.Is(err, dataset.ErrInvalidFilter),
		errors.Is(err, dataset.ErrInvalidState),
		errors.Is(err, dataset.ErrUnknownView),
		errors.Is(err, dataset.ErrUnknownKey),
		errors.Is(err, datasethandler.ErrUnknownRole),
		errors.Is(err, datasethandler.ErrInvalidQuery):
		return fiber.StatusBadRequest
	case errors.Is(err, dataset.ErrConfigDenied),
		dataset.IsSkipAttribute(err):
		return fiber.StatusForbidden
	case errors.Is(err, dataset.ErrPurged):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler writes handler errors as json.
func ErrorHandler(c fiber.Ctx, err error) error {
	code := StatusFor(err)
	resp := ErrorResponse{Message: err.Error(), Code: code}

	var badReq *handler.BadRequestError
	if errors.As(err, &badReq) {
		resp.Fields = badReq.Fields
	}

	if code == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		// internals stay in the log
		resp.Message = "internal server error"
	}

	return c.Status(code).JSON(resp)
}
