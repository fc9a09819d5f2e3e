// Package fault holds the device error codes and the process-wide fatal-error path.
//
// Resource faults in the animation and display layers are not returned to callers.
// They are reported to a Handler, which in production logs the fault and terminates
// through atexit so shutdown hooks (blanking the ring, closing drivers) still run.
package fault

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tebeka/atexit"
)

// Code is the numeric error code reported on termination.
type Code uint8

const (
	None Code = iota
	AccelReadID
	AccelBadID
	AccelWriteEnable
	DispDrawBadCompType
	DispAllocFail
	DispClearBadCompType
	AnimBadType
	AnimAllocFail
	AssertionFail
)

var codeNames = map[Code]string{
	None:                 "NONE",
	AccelReadID:          "ACCEL_READ_ID",
	AccelBadID:           "ACCEL_BAD_ID",
	AccelWriteEnable:     "ACCEL_WRITE_ENABLE",
	DispDrawBadCompType:  "DISP_DRAW_BAD_COMP_TYPE",
	DispAllocFail:        "DISP_ALLOC_FAIL",
	DispClearBadCompType: "DISP_CLEAR_BAD_COMP_TYPE",
	AnimBadType:          "ANIM_BAD_TYPE",
	AnimAllocFail:        "ANIM_ALLOC_FAIL",
	AssertionFail:        "ASSERTION_FAIL",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("CODE_%d", uint8(c))
}

// Error is a coded fault. Two Errors match under errors.Is when their codes match.
type Error struct {
	Code Code
	Msg  string
}

func New(code Code, msg string) *Error { return &Error{Code: code, Msg: msg} }

func (e *Error) Error() string { return e.Code.String() + ": " + e.Msg }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf extracts the fault code of err. Errors from outside this package map to AssertionFail.
func CodeOf(err error) Code {
	if err == nil {
		return None
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return AssertionFail
}

// Handler receives non-recoverable faults. A Handler that returns (tests, simulators)
// leaves the reporting operation to bail out with a zero result.
type Handler func(err error)

var exit = atexit.Exit

// Terminate is the production Handler: log at fatal level and exit with the fault code
// after running the hooks registered with OnExit.
func Terminate(err error) {
	code := CodeOf(err)
	log.WithLevel(zerolog.FatalLevel).Err(err).Str("code", code.String()).Msg("terminating in error")
	exit(int(code))
}

// OnExit registers fn to run before Terminate exits the process.
func OnExit(fn func()) {
	atexit.Register(fn)
}
