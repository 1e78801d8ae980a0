package core

import (
	"errors"

	"github.com/vovakirdan/typeroom-server/internal/gate"
)

// ErrorKind classifies domain errors.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindConflict    ErrorKind = "conflict"
	KindCapacity    ErrorKind = "capacity"
	KindRateLimited ErrorKind = "rate_limited"
	KindNotFound    ErrorKind = "not_found"
)

// Error codes for domain errors.
const (
	ErrCodeBadRequest             = "bad_request"
	ErrCodeInvalidNickname        = "invalid_nickname"
	ErrCodeNicknameTaken          = "nickname_taken"
	ErrCodeInvalidRoomName        = "invalid_room_name"
	ErrCodeMessageTooLong         = "message_too_long"
	ErrCodeDuplicateRoomName      = "duplicate_room_name"
	ErrCodeOwnerHasEmptyRoom      = "owner_has_empty_room"
	ErrCodeNotOwner               = "not_owner"
	ErrCodeRoomNotEmpty           = "room_not_empty"
	ErrCodeRoomFull               = "room_full"
	ErrCodeAlreadyInRoomElsewhere = "already_in_room_elsewhere"
	ErrCodeRoomNotFound           = "room_not_found"
	ErrCodeNotInRoom              = "not_in_room"
	ErrCodeCaptchaRequired        = "captcha_required"
	ErrCodeIncorrectAnswer        = "incorrect_answer"
)

var (
	ErrBadRequest             = errors.New("bad request")
	ErrInvalidNickname        = errors.New("invalid nickname")
	ErrNicknameTaken          = errors.New("nickname already taken")
	ErrInvalidRoomName        = errors.New("invalid room name")
	ErrMessageTooLong         = errors.New("message too long")
	ErrDuplicateRoomName      = errors.New("room name already exists")
	ErrOwnerHasEmptyRoom      = errors.New("owner has an empty room")
	ErrNotOwner               = errors.New("not the owner of this room")
	ErrRoomNotEmpty           = errors.New("room is not empty")
	ErrRoomFull               = errors.New("room is full")
	ErrAlreadyInRoomElsewhere = errors.New("already in room from another connection")
	ErrRoomNotFound           = errors.New("room not found")
	ErrNotInRoom              = errors.New("not in room")
	ErrCaptchaRequired        = errors.New("captcha required")
	ErrIncorrectAnswer        = errors.New("incorrect captcha answer")
)

var sentinels = map[string]error{
	ErrCodeBadRequest:             ErrBadRequest,
	ErrCodeInvalidNickname:        ErrInvalidNickname,
	ErrCodeNicknameTaken:          ErrNicknameTaken,
	ErrCodeInvalidRoomName:        ErrInvalidRoomName,
	ErrCodeMessageTooLong:         ErrMessageTooLong,
	ErrCodeDuplicateRoomName:      ErrDuplicateRoomName,
	ErrCodeOwnerHasEmptyRoom:      ErrOwnerHasEmptyRoom,
	ErrCodeNotOwner:               ErrNotOwner,
	ErrCodeRoomNotEmpty:           ErrRoomNotEmpty,
	ErrCodeRoomFull:               ErrRoomFull,
	ErrCodeAlreadyInRoomElsewhere: ErrAlreadyInRoomElsewhere,
	ErrCodeRoomNotFound:           ErrRoomNotFound,
	ErrCodeNotInRoom:              ErrNotInRoom,
	ErrCodeCaptchaRequired:        ErrCaptchaRequired,
	ErrCodeIncorrectAnswer:        ErrIncorrectAnswer,
}

// CoreError wraps a kind, a code and a human-readable message.
// Challenge is set for rate-limited errors so the client can present a solve form.
type CoreError struct {
	Kind      ErrorKind
	Code      string
	Message   string
	Challenge *gate.Challenge
}

func (e *CoreError) Error() string {
	return e.Message
}

// Is lets errors.Is match a CoreError against the sentinel for its code.
func (e *CoreError) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

func coreError(kind ErrorKind, code, msg string) *CoreError {
	return &CoreError{Kind: kind, Code: code, Message: msg}
}

func rateLimited(d gate.Decision) *CoreError {
	if d.Outcome == gate.IncorrectAnswer {
		return &CoreError{
			Kind:      KindRateLimited,
			Code:      ErrCodeIncorrectAnswer,
			Message:   "Incorrect CAPTCHA answer",
			Challenge: d.Challenge,
		}
	}
	return &CoreError{
		Kind:      KindRateLimited,
		Code:      ErrCodeCaptchaRequired,
		Message:   "captcha_required",
		Challenge: d.Challenge,
	}
}
