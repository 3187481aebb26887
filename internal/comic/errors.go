package comic

import (
	"errors"

	"folio/internal/services"
)

// Error taxonomy for opening and reading comics. Callers classify with errors.Is.
var (
	ErrNotFound            = errors.New("comic file not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrInvalidFormat       = errors.New("invalid or unsupported comic format")
	ErrNoPages             = errors.New("no pages found")
	ErrDecodeFailed        = errors.New("page decode failed")
	ErrMetadataParseFailed = errors.New("metadata parse failed")
	ErrIndexOutOfRange     = errors.New("page index out of range")
)

// Wrap tags err with a taxonomy marker and the comic stage that failed.
func Wrap(marker error, operation, message string, err error) error {
	return services.Wrap(marker, "comic", operation, message, err)
}

// IsFatalOpenError reports whether err must abort a session open.
func IsFatalOpenError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrNoPages)
}

// UserMessage returns the human-readable remediation for err. The wording
// distinguishes the cases whose fixes differ: re-grant access, re-import, or
// discard the file.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Comic file not found. It may have been moved or deleted; re-import it from its new location."
	case errors.Is(err, ErrAccessDenied):
		return "Access denied. Please grant permission to read this file, then import it again."
	case errors.Is(err, ErrInvalidFormat):
		return "Invalid or unsupported comic file format. Only CBZ/ZIP archives and PDF documents can be opened."
	case errors.Is(err, ErrNoPages):
		return "No images found in comic file. The file is empty or corrupt and can be discarded."
	case errors.Is(err, ErrDecodeFailed):
		return "Comic file is corrupted or incomplete. Some pages could not be read."
	case errors.Is(err, ErrMetadataParseFailed):
		return "Failed to parse comic metadata."
	case errors.Is(err, ErrIndexOutOfRange):
		return "That page does not exist in this comic."
	default:
		return "Failed to extract comic contents."
	}
}
