package owlet

import "encoding/json"

// Reading is a telemetry value that the device may or may not have reported.
type Reading[T any] struct {
	Value    T
	Reported bool
}

// Reported wraps a value the device did report.
func Reported[T any](v T) Reading[T] {
	return Reading[T]{Value: v, Reported: true}
}

func (r Reading[T]) Get() (T, bool) {
	return r.Value, r.Reported
}

// Or returns the value, or fallback when nothing was reported.
func (r Reading[T]) Or(fallback T) T {
	if !r.Reported {
		return fallback
	}
	return r.Value
}

// Any returns the value as an interface, nil when not reported.
func (r Reading[T]) Any() any {
	if !r.Reported {
		return nil
	}
	return r.Value
}

func (r Reading[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Any())
}
