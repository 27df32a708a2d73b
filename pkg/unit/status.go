package unit

import "fmt"

// Status is a native result code. Zero means success and is never returned as an error.
type Status int32

// Native status codes.
const (
	ErrInvalidProperty          Status = -10879
	ErrInvalidParameter         Status = -10878
	ErrInvalidElement           Status = -10877
	ErrNoConnection             Status = -10876
	ErrFailedInitialization     Status = -10875
	ErrTooManyFramesToProcess   Status = -10874
	ErrFormatNotSupported       Status = -10868
	ErrUninitialized            Status = -10867
	ErrInvalidScope             Status = -10866
	ErrPropertyNotWritable      Status = -10865
	ErrCannotDoInCurrentContext Status = -10863
	ErrInvalidPropertyValue     Status = -10851
	ErrInitialized              Status = -10849
	ErrDisposed                 Status = -50
)

var statusNames = map[Status]string{
	ErrInvalidProperty:          "invalid property",
	ErrInvalidParameter:         "invalid parameter",
	ErrInvalidElement:           "invalid element",
	ErrNoConnection:             "no connection",
	ErrFailedInitialization:     "failed initialization",
	ErrTooManyFramesToProcess:   "too many frames to process",
	ErrFormatNotSupported:       "format not supported",
	ErrUninitialized:            "uninitialized",
	ErrInvalidScope:             "invalid scope",
	ErrPropertyNotWritable:      "property not writable",
	ErrCannotDoInCurrentContext: "cannot do in current context",
	ErrInvalidPropertyValue:     "invalid property value",
	ErrInitialized:              "already initialized",
	ErrDisposed:                 "unit disposed",
}

// Error prints the decimal code, its four character form when printable, and a name if known.
func (s Status) Error() string {
	msg := fmt.Sprintf("unit status %d", int32(s))
	if cc := FourCC(uint32(s)).String(); len(cc) == 4 {
		msg += " '" + cc + "'"
	}
	if name, ok := statusNames[s]; ok {
		msg += ": " + name
	}
	return msg
}
