package service

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/core/domain"
)

// NoticeKind classifies a user-visible notice.
type NoticeKind string

const (
	NoticeNone            NoticeKind = ""
	NoticeUnauthenticated NoticeKind = "unauthenticated"
	NoticeUnauthorized    NoticeKind = "unauthorized"
	NoticeNotFound        NoticeKind = "not_found"
	NoticeValidation      NoticeKind = "validation"
	NoticeTransport       NoticeKind = "transport"
	NoticeInternal        NoticeKind = "internal"
)

// Notice is what the presentation layer shows after an operation fails.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Describe maps an operation error to a notice. Unclassified errors are logged
// and shown with a generic message.
func Describe(err error, log zerolog.Logger) Notice {
	switch {
	case err == nil:
		return Notice{}
	case errors.Is(err, domain.ErrUnauthenticated):
		return Notice{Kind: NoticeUnauthenticated, Message: "Please sign in to continue."}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return Notice{Kind: NoticeUnauthenticated, Message: "Wrong username or password."}
	case errors.Is(err, domain.ErrUnauthorized):
		return Notice{Kind: NoticeUnauthorized, Message: "This action requires an administrator."}
	case errors.Is(err, domain.ErrCartEmpty):
		return Notice{Kind: NoticeValidation, Message: "Your cart is empty."}
	case errors.Is(err, domain.ErrUserExists):
		return Notice{Kind: NoticeValidation, Message: "That username is already taken."}
	case errors.Is(err, domain.ErrValidation):
		return Notice{Kind: NoticeValidation, Message: validationDetail(err)}
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return Notice{Kind: NoticeNotFound, Message: "We couldn't find what you were looking for."}
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrMalformedResponse):
		return Notice{Kind: NoticeTransport, Message: "The store is unreachable right now. Please try again."}
	default:
		log.Error().Err(err).Msg("unexpected error")
		return Notice{Kind: NoticeInternal, Message: "Something went wrong."}
	}
}

// validationDetail keeps the part of the message after the sentinel text.
func validationDetail(err error) string {
	msg := err.Error()
	if _, detail, ok := strings.Cut(msg, domain.ErrValidation.Error()+": "); ok && detail != "" {
		return detail
	}
	return msg
}
