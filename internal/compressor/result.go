package compressor

import "math"

// Kind tags why a compression did or did not succeed.
type Kind int

const (
	KindOK Kind = iota
	KindInvalidInput
	KindEngineFailure
	KindTimeout
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindInvalidInput:
		return "invalid_input"
	case KindEngineFailure:
		return "engine_failure"
	case KindTimeout:
		return "timeout"
	case KindUnexpected:
		return "unexpected"
	}
	return "unknown"
}

type Request struct {
	InputPath  string
	OutputPath string
	Quality    string
}

// Result is returned for every call; failures are never raised as errors.
// OriginalSize, CompressedSize and Ratio are only meaningful when Success.
type Result struct {
	Success        bool
	Kind           Kind
	Message        string
	Diagnostic     string
	OriginalSize   int64
	CompressedSize int64
	Ratio          float64
}

func failure(kind Kind, msg string) Result {
	return Result{Kind: kind, Message: msg}
}

// Ratio is (1 - compressed/original) * 100 rounded to one decimal. It is
// negative when the output grew, and 0 for an empty original.
func Ratio(original, compressed int64) float64 {
	if original <= 0 {
		return 0
	}
	r := (1 - float64(compressed)/float64(original)) * 100
	return math.Round(r*10) / 10
}
