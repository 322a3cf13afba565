package apperror

import "errors"

// Kind classifies a pipeline failure. A parse miss on model output is not a
// Kind: the report parser returns explicit not-found values instead of errors.
type Kind string

const (
	KindTransport   Kind = "transport"   // broker / network
	KindExtraction  Kind = "extraction"  // OCR timeout or unreadable document
	KindModelCall   Kind = "model_call"  // LLM or speech API error
	KindPersistence Kind = "persistence" // database read/write rejected
	KindBadMessage  Kind = "bad_message" // malformed queue payload
	KindInternal    Kind = "internal"
)

type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string, err error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

func Transport(message string, err error) *AppError {
	return New(KindTransport, message, err)
}

func Extraction(message string, err error) *AppError {
	return New(KindExtraction, message, err)
}

func ModelCall(message string, err error) *AppError {
	return New(KindModelCall, message, err)
}

func Persistence(message string, err error) *AppError {
	return New(KindPersistence, message, err)
}

func BadMessage(message string) *AppError {
	return New(KindBadMessage, message, nil)
}

// KindOf reports the Kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
