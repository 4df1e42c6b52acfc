package service

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// Every error a service returns to a caller is one of these, optionally
// with a cause attached. Handlers use the code as the HTTP status.
var (
	ErrUnauthenticated = errors.Unauthorized("UNAUTHENTICATED", "sign in required")
	ErrForbidden       = errors.Forbidden("FORBIDDEN", "not allowed")
	ErrAdminOnly       = errors.Forbidden("FORBIDDEN", "admin only")
	ErrUserBanned      = errors.Forbidden("USER_BANNED", "your account is banned")

	ErrMovieNotFound      = errors.NotFound("MOVIE_NOT_FOUND", "movie not found")
	ErrSuggestionNotFound = errors.NotFound("SUGGESTION_NOT_FOUND", "suggestion not found")
	ErrReportNotFound     = errors.NotFound("REPORT_NOT_FOUND", "report not found")
	ErrUserNotFound       = errors.NotFound("USER_NOT_FOUND", "user not found")

	ErrAlreadyExists        = errors.Conflict("MOVIE_ALREADY_EXISTS", "movie already exists")
	ErrDuplicateTitle       = errors.Conflict("DUPLICATE_TITLE", "this title has already been suggested")
	ErrAlreadyVoted         = errors.Conflict("ALREADY_VOTED", "you already voted on this movie")
	ErrVoteNotFound         = errors.NotFound("VOTE_NOT_FOUND", "no vote to cancel")
	ErrAlreadyProcessed     = errors.Conflict("REPORT_ALREADY_PROCESSED", "report was already processed")
	ErrDuplicateReport      = errors.Conflict("DUPLICATE_REPORT", "you already reported this suggestion")
	ErrInvalidReason        = errors.BadRequest("INVALID_REASON", "reason must be between 10 and 500 characters")
	ErrCannotDeleteOfficial = errors.Forbidden("CANNOT_DELETE_OFFICIAL", "official suggestions cannot be deleted")
	ErrUpstream             = errors.New(502, "UPSTREAM_ERROR", "film registry unavailable")

	ErrInvalidTitle   = errors.BadRequest("INVALID_TITLE", "title is required")
	ErrInvalidComment = errors.BadRequest("INVALID_COMMENT", "comment must be between 1 and 1000 characters")
	ErrInvalidMovie   = errors.BadRequest("INVALID_MOVIE", "original title is required")
	ErrInvalidBan     = errors.BadRequest("INVALID_BAN", "reason is required and duration must be between 1 and 36500 days")

	ErrInvalidMovieCode = errors.BadRequest("INVALID_MOVIE_CODE", "movie code is required")
)

// upstream keeps the registry's own message so callers can show it.
func upstream(err error) error {
	return errors.New(int(ErrUpstream.Code), ErrUpstream.Reason, err.Error()).WithCause(err)
}
