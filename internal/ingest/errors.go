package ingest

import "fmt"

// Stable request error codes surfaced to callers of Ingest. The HTTP
// layer maps these onto client-visible error bodies.
const (
	CodePayloadNotJSON = "PAYLOADNOTJSON"
	CodeSourceNotFound = "SOURCENOTFOUND"
	CodeEventNotFound  = "EVENTNOTFOUND"
	CodePayloadInvalid = "PAYLOADINVALID"
)

// InvalidRequestError is a recoverable-by-caller ingestion failure.
// It is never retried internally.
type InvalidRequestError struct {
	Code    string
	Message string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newInvalidRequest(code, format string, args ...interface{}) *InvalidRequestError {
	return &InvalidRequestError{Code: code, Message: fmt.Sprintf(format, args...)}
}
