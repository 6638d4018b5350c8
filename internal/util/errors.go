package util

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")

	// 测试访问
	ErrTestAccessDenied = errors.New("test is not available for current user")

	ErrTestNotFound       = errors.New("test not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAnswerNotFound     = errors.New("answer not found")
	ErrSlotNotFound       = errors.New("question slot not found in active attempt")
	ErrPassResultNotFound = errors.New("test pass result not found")
	ErrSubjectNotFound    = errors.New("subject not found")

	ErrInvalidAnswer           = errors.New("invalid answer")
	ErrQuestionAlreadyAnswered = errors.New("question already answered")

	ErrSessionBusy = errors.New("test session is locked by another request")
)

// IsNotFound 判断是否为资源不存在类错误
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTestNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAnswerNotFound) ||
		errors.Is(err, ErrSlotNotFound) ||
		errors.Is(err, ErrPassResultNotFound) ||
		errors.Is(err, ErrSubjectNotFound)
}
