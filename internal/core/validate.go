package core

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

var nicknamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Limits bounds user input and room sizes.
type Limits struct {
	RoomCapacity      int
	LineHistory       int
	MaxNicknameLength int
	MaxRoomNameLength int
	MaxMessageLength  int
}

// DefaultLimits mirrors the public protocol contract.
func DefaultLimits() Limits {
	return Limits{
		RoomCapacity:      10,
		LineHistory:       6,
		MaxNicknameLength: 20,
		MaxRoomNameLength: 30,
		MaxMessageLength:  500,
	}
}

func (l Limits) validateNickname(name string) *CoreError {
	if name == "" {
		return coreError(KindValidation, ErrCodeInvalidNickname, "Invalid input")
	}
	if utf8.RuneCountInString(name) > l.MaxNicknameLength {
		return coreError(KindValidation, ErrCodeInvalidNickname,
			fmt.Sprintf("Nickname too long (max %d)", l.MaxNicknameLength))
	}
	if !nicknamePattern.MatchString(name) {
		return coreError(KindValidation, ErrCodeInvalidNickname, "Nickname contains invalid characters")
	}
	return nil
}

func (l Limits) validateRoomName(name string) *CoreError {
	if name == "" {
		return coreError(KindValidation, ErrCodeInvalidRoomName, "Room name required")
	}
	if utf8.RuneCountInString(name) > l.MaxRoomNameLength {
		return coreError(KindValidation, ErrCodeInvalidRoomName,
			fmt.Sprintf("Room name too long (max %d)", l.MaxRoomNameLength))
	}
	return nil
}

func (l Limits) validateMessage(content string) *CoreError {
	if content == "" {
		return coreError(KindValidation, ErrCodeBadRequest, "Invalid input")
	}
	if utf8.RuneCountInString(content) > l.MaxMessageLength {
		return coreError(KindValidation, ErrCodeMessageTooLong,
			fmt.Sprintf("Message too long (max %d)", l.MaxMessageLength))
	}
	return nil
}
