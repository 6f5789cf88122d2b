package services

import "strings"

// Optional is a form value that was either supplied or left blank. Absent
// values are stored as NULL.
type Optional[T any] struct {
	value   T
	present bool
}

func Some[T any](v T) Optional[T] { return Optional[T]{value: v, present: true} }

func None[T any]() Optional[T] { return Optional[T]{} }

// OptionalString treats blank input as absent.
func OptionalString(s string) Optional[string] {
	if strings.TrimSpace(s) == "" {
		return None[string]()
	}
	return Some(s)
}

func (o Optional[T]) Get() (T, bool) { return o.value, o.present }

func (o Optional[T]) Present() bool { return o.present }

// Ptr returns nil when absent.
func (o Optional[T]) Ptr() *T {
	if !o.present {
		return nil
	}
	v := o.value
	return &v
}
