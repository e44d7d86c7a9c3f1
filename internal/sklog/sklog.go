// Package sklog is a thin structured-logging facade over glog, giving the
// rest of mobench a small, consistent surface (Info/Warning/Error/Fatal)
// independent of the logging backend underneath it.
package sklog

import (
	"fmt"

	"github.com/golang/glog"
)

func Info(args ...interface{}) { glog.InfoDepth(1, args...) }
func Infof(format string, args ...interface{}) {
	glog.InfoDepth(1, fmt.Sprintf(format, args...))
}

func Warning(args ...interface{}) { glog.WarningDepth(1, args...) }
func Warningf(format string, args ...interface{}) {
	glog.WarningDepth(1, fmt.Sprintf(format, args...))
}

func Error(args ...interface{}) { glog.ErrorDepth(1, args...) }
func Errorf(format string, args ...interface{}) {
	glog.ErrorDepth(1, fmt.Sprintf(format, args...))
}

// Fatal logs and then terminates the process, matching glog's own
// semantics; used only at the CLI's top level, never inside library code.
func Fatal(args ...interface{}) { glog.FatalDepth(1, args...) }
func Fatalf(format string, args ...interface{}) {
	glog.FatalDepth(1, fmt.Sprintf(format, args...))
}

// Flush flushes any buffered log entries; call before process exit.
func Flush() { glog.Flush() }
