package http

import (
	"errors"
	"net/http"

	autoentity "github.com/fooodis/content-engine/internal/domain/automation/entity"
	postentity "github.com/fooodis/content-engine/internal/domain/post/entity"
	settingsentity "github.com/fooodis/content-engine/internal/domain/settings/entity"
	"github.com/fooodis/content-engine/internal/httpx/response"
)

// handleDomainError maps domain sentinel errors onto HTTP status codes
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, autoentity.ErrPathNotFound),
		errors.Is(err, autoentity.ErrLogNotFound),
		errors.Is(err, postentity.ErrPostNotFound),
		errors.Is(err, postentity.ErrScheduledPostNotFound):
		response.NotFound(w, err.Error())

	case errors.Is(err, autoentity.ErrEmptyPathName),
		errors.Is(err, autoentity.ErrInvalidMode),
		errors.Is(err, autoentity.ErrInvalidScheduleType),
		errors.Is(err, autoentity.ErrInvalidScheduleTime),
		errors.Is(err, autoentity.ErrInvalidScheduleDay),
		errors.Is(err, autoentity.ErrInvalidPathStatus),
		errors.Is(err, autoentity.ErrInvalidLogStatus),
		errors.Is(err, autoentity.ErrCloseWithoutContent),
		errors.Is(err, autoentity.ErrCloseWithoutError),
		errors.Is(err, postentity.ErrEmptyTitle),
		errors.Is(err, postentity.ErrEmptyContent),
		errors.Is(err, postentity.ErrInvalidRating),
		errors.Is(err, settingsentity.ErrInvalidTemperature),
		errors.Is(err, settingsentity.ErrInvalidMaxTokens):
		response.BadRequest(w, err.Error())

	case errors.Is(err, autoentity.ErrLogAlreadyClosed),
		errors.Is(err, postentity.ErrAlreadyPublished),
		errors.Is(err, postentity.ErrRetriesExhausted):
		response.Conflict(w, err.Error())

	case errors.Is(err, autoentity.ErrMissingAPIKey):
		response.ServiceUnavailable(w, err.Error())

	case errors.Is(err, autoentity.ErrGenerationFailed),
		errors.Is(err, postentity.ErrPublishFailed):
		response.Error(w, http.StatusBadGateway, err.Error())

	default:
		response.InternalError(w, "internal server error")
	}
}
