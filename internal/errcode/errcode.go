package errcode

import (
	"fmt"

	"github.com/pkg/errors"
)

type Code int

const (
	CodeSuccess  Code = 0
	CodeInternal Code = iota + 1000
	CodeInvalid
	CodeNotExist
	CodeInconsistent
	CodeMalformed
	CodeUnsupported
)

var code2str = map[Code]string{
	CodeSuccess:      "success",
	CodeInternal:     "internal error",
	CodeInvalid:      "invalid argument",
	CodeNotExist:     "not exist",
	CodeInconsistent: "inconsistent state",
	CodeMalformed:    "malformed input",
	CodeUnsupported:  "unsupported",
}

func (c Code) String() string {
	s, ok := code2str[c]
	if !ok {
		return fmt.Sprintf("unknown code: %d", c)
	}
	return s
}

type ErrorCode struct {
	code    Code
	message string
}

func (e ErrorCode) Code() Code { return e.code }
func (e ErrorCode) Message() string {
	if e.code == CodeSuccess {
		return e.Code().String()
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e ErrorCode) Error() string { return e.Message() }

func New(code Code, format string, a ...any) ErrorCode {
	return ErrorCode{
		code:    code,
		message: fmt.Sprintf(format, a...),
	}
}

func NewError(code Code, err error) ErrorCode {
	return New(code, "%s", err.Error())
}

// CodeOf returns the code carried anywhere in err's chain, CodeInternal for
// uncoded errors and CodeSuccess for nil.
func CodeOf(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	var e ErrorCode
	if errors.As(err, &e) {
		return e.code
	}
	return CodeInternal
}

func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
