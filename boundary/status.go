package boundary

import (
	"github.com/wippyai/bindgen/errors"
)

// Code is the status code written to the C status out-parameter.
type Code int32

const (
	StatusOK Code = iota
	StatusNativeError
	StatusNullArgument
	StatusInvalidHandle
	StatusEncodingFailure
	StatusPanic
	StatusUnknownMethod
	StatusNotInitialized
)

var codeNames = [...]string{
	StatusOK:              "ok",
	StatusNativeError:     "native_error",
	StatusNullArgument:    "null_argument",
	StatusInvalidHandle:   "invalid_handle",
	StatusEncodingFailure: "encoding_failure",
	StatusPanic:           "panic",
	StatusUnknownMethod:   "unknown_method",
	StatusNotInitialized:  "not_initialized",
}

func (c Code) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "unknown"
}

// Codes lists every status code in numeric order.
func Codes() []Code {
	out := make([]Code, len(codeNames))
	for i := range out {
		out[i] = Code(i)
	}
	return out
}

// Status is the outcome of one boundary call.
type Status struct {
	Err       error
	Message   string
	Code      Code
	ErrorKind int32
}

// OK reports whether the call succeeded.
func (s Status) OK() bool { return s.Code == StatusOK }

// StatusOf converts err into a status. Native errors are mapped to a kind
// code through kinds; a nil kinds maps every native error to code 0.
func StatusOf(err error, kinds *ErrorKinds) Status {
	if err == nil {
		return Status{}
	}

	var e *errors.Error
	if errors.As(err, &e) {
		st := Status{Err: err, Message: err.Error()}
		switch e.Kind {
		case errors.KindNullArgument:
			st.Code = StatusNullArgument
		case errors.KindInvalidHandle, errors.KindTypeMismatch:
			st.Code = StatusInvalidHandle
		case errors.KindEncoding:
			st.Code = StatusEncodingFailure
		case errors.KindPanic:
			st.Code = StatusPanic
		case errors.KindUnknownMethod:
			st.Code = StatusUnknownMethod
		case errors.KindNotInitialized, errors.KindClosed:
			st.Code = StatusNotInitialized
		case errors.KindNative:
			kind, _ := e.Value.(string)
			st.Code = StatusNativeError
			st.ErrorKind = kinds.Code(kind)
			st.Message = e.Detail
		default:
			st.Code = StatusNativeError
		}
		return st
	}

	var k Kinded
	if errors.As(err, &k) {
		msg := err.Error()
		var ne *NativeError
		if errors.As(err, &ne) {
			msg = ne.Message
		}
		return Status{
			Err:       err,
			Code:      StatusNativeError,
			ErrorKind: kinds.Code(k.ErrorKind()),
			Message:   msg,
		}
	}

	return Status{Err: err, Code: StatusNativeError, Message: err.Error()}
}
