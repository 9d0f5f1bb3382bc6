package sheets

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrMissingCredentials is returned when no service account is configured.
var ErrMissingCredentials = errors.New("google service account credentials are missing")

// notSupportedMessage is what the Sheets API answers when the id points at
// an uploaded workbook instead of a native spreadsheet.
const notSupportedMessage = "not supported for this document"

// NotNativeError reports that a ranged read failed because the document is
// not a native spreadsheet. It is the only read failure the reader recovers
// from.
type NotNativeError struct {
	Reason string
	Err    error
}

func (e *NotNativeError) Error() string {
	return "document is not a native spreadsheet: " + e.Reason
}

func (e *NotNativeError) Unwrap() error {
	return e.Err
}

// classifyReadError turns the Sheets API "wrong document type" failure into
// a *NotNativeError and returns every other error unchanged.
func classifyReadError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	if gerr.Code != http.StatusBadRequest {
		return err
	}
	if !strings.Contains(strings.ToLower(gerr.Message), notSupportedMessage) {
		return err
	}
	return &NotNativeError{Reason: gerr.Message, Err: err}
}
