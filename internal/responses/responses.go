package responses

import (
	"errors"

	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
)

var (
	Success      = structs.Response{Status: 200, Message: "success"}
	BadRequest   = structs.Response{Status: 400, Message: "bad request"}
	Unauthorized = structs.Response{Status: 401, Message: "unauthorized"}
	NotOwner     = structs.Response{Status: 403, Message: "not owner"}
	NotFound     = structs.Response{Status: 404, Message: "not found"}
	Conflict     = structs.Response{Status: 409, Message: "conflict"}
	Taken        = structs.Response{Status: 409, Message: "job already taken"}
	InternalErr  = structs.Response{Status: 500, Message: "internal error"}
)

func WithPayload(base structs.Response, payload any) structs.Response {
	base.Payload = payload
	return base
}

// FromError maps the typed failure taxonomy onto wire responses.
func FromError(err error) structs.Response {
	switch {
	case errors.Is(err, structs.ErrValidation):
		return BadRequest
	case errors.Is(err, structs.ErrNotFound):
		return NotFound
	case errors.Is(err, structs.ErrNotOwner):
		return NotOwner
	case errors.Is(err, structs.ErrJobAlreadyTaken):
		return Taken
	case errors.Is(err, structs.ErrInvalidTransition):
		return Conflict
	case errors.Is(err, structs.ErrUniqueViolation):
		return Conflict
	case errors.Is(err, structs.ErrUnauthorized), errors.Is(err, structs.ErrUserBlocked):
		return Unauthorized
	default:
		return InternalErr
	}
}
