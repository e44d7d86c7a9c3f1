// Package skerr wraps errors with the call site that produced them, so a
// fatal message can be traced back through the layers that handled it
// without a full stack trace.
package skerr

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
)

// Wrap annotates err with the caller's file:line. Returns nil if err is
// nil, so it's safe to call unconditionally on a function's error return.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return &annotated{cause: err, loc: caller(2)}
}

// Wrapf annotates err with the caller's file:line and a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &annotated{cause: err, loc: caller(2), msg: fmt.Sprintf(format, args...)}
}

// Fmt builds a new error at the caller's file:line, like fmt.Errorf but
// with a location breadcrumb.
func Fmt(format string, args ...interface{}) error {
	return &annotated{cause: errors.New(fmt.Sprintf(format, args...)), loc: caller(2)}
}

// Unwrap returns the innermost error in a chain of Wrap/Wrapf calls.
func Unwrap(err error) error {
	for {
		a, ok := err.(*annotated)
		if !ok {
			return err
		}
		err = a.cause
	}
}

type annotated struct {
	cause error
	msg   string
	loc   string
}

func (a *annotated) Error() string {
	if a.msg != "" {
		return fmt.Sprintf("%s: %s. At %s", a.msg, a.cause.Error(), a.loc)
	}
	return fmt.Sprintf("%s. At %s", a.cause.Error(), a.loc)
}

func (a *annotated) Unwrap() error { return a.cause }

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", shortFile(file), line)
}

func shortFile(file string) string {
	slash := -1
	for i := len(file) - 1; i >= 0; i-- {
		if file[i] == '/' {
			slash = i
			break
		}
	}
	if slash == -1 {
		return file
	}
	return file[slash+1:]
}
