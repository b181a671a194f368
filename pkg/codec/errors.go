package codec

import "fmt"

// EncodingError is raised while assembling an outbound message (§4.2.1,
// §7): a required member was absent, or a member had no recognizable
// shape.
type EncodingError struct {
	Reason string
	Field  string
}

func (e *EncodingError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("encoding error: %s (field %s)", e.Reason, e.Field)
	}
	return "encoding error: " + e.Reason
}

func NewMissingRequiredEncodingError(field string) *EncodingError {
	return &EncodingError{Reason: "missing required field", Field: field}
}

// DecodingError is raised while parsing an inbound message (§4.2.2, §7):
// a required header/body/trailer member was not present, or (in strict
// mode) an unrecognized tag was seen where only declared members are
// allowed.
type DecodingError struct {
	Reason string
	Field  string
}

func (e *DecodingError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decoding error: %s (field %s)", e.Reason, e.Field)
	}
	return "decoding error: " + e.Reason
}

func NewMissingRequiredDecodingError(field string) *DecodingError {
	return &DecodingError{Reason: "missing required field", Field: field}
}

func NewUnexpectedTagDecodingError(tag string) *DecodingError {
	return &DecodingError{Reason: "unexpected tag in strict mode", Field: tag}
}

func NewStructureDecodingError(reason string) *DecodingError {
	return &DecodingError{Reason: reason}
}

// FieldValueMismatchError is a DecodingError subtype (§7): a recomputed
// integrity field (BodyLength, CheckSum, or BeginString) disagreed with
// what the sender claimed.
type FieldValueMismatchError struct {
	Field    string
	Expected string
	Received string
}

func (e *FieldValueMismatchError) Error() string {
	return fmt.Sprintf("decoding error: field value mismatch on %s: expected %s, received %s",
		e.Field, e.Expected, e.Received)
}

func NewFieldValueMismatchError(field, expected, received string) *FieldValueMismatchError {
	return &FieldValueMismatchError{Field: field, Expected: expected, Received: received}
}
