package protocol

import "errors"

// ErrUnknownFieldType is returned when a dictionary field declares a
// semantic type the codec does not recognize (§4.1 failure mode).
var ErrUnknownFieldType = errors.New("unknown field type")
