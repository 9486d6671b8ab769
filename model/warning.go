package model

import "fmt"

// Warning describes a non-fatal degradation encountered during parsing or
// generation: the conversion continued, but the output is best-effort at the
// point the warning names.
type Warning struct {
	Code    string
	Message string
}

func (w Warning) String() string {
	return w.Code + ": " + w.Message
}

// Warnf builds a Warning with a formatted message.
func Warnf(code, format string, args ...any) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}
