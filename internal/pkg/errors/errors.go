package errors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalid            = errors.New("invalid")
	ErrTooMany            = errors.New("too many requests")
	ErrInternal           = errors.New("internal")
	ErrEmptyAudio         = errors.New("empty audio")
	ErrUnsupportedFormat  = errors.New("unsupported audio format")
	ErrUnsupportedModel   = errors.New("unsupported model")
	ErrCacheIncomplete    = errors.New("cache incomplete")
	ErrCacheNotReady      = errors.New("embedding cache not ready")
	ErrEmptyEvaluationSet = errors.New("empty evaluation set")
	ErrEmptyBatch         = errors.New("empty batch")
	ErrDegenerateVector   = errors.New("degenerate vector")
	ErrDimensionMismatch  = errors.New("dimension mismatch")
	ErrEncoderUnavailable = errors.New("encoder unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}
