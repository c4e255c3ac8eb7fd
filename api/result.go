package api

import (
	"encoding/json"

	"github.com/jrsteele09/go-roombook/internal/errors"
)

// Result is either Ok(value) or Err(detail).
type Result[T any] struct {
	value T
	err   *ErrorDetail
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

func Err[T any](detail *ErrorDetail) Result[T] {
	if detail == nil {
		detail = &ErrorDetail{Message: "unknown error", Kind: errors.ErrRejected}
	}
	return Result[T]{err: detail}
}

func (r Result[T]) IsOk() bool {
	return r.err == nil
}

func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Err() *ErrorDetail {
	return r.err
}

// Unwrap converts the result to Go's (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		return r.value, r.err
	}
	return r.value, nil
}

// Decode maps normalised data onto T. Null or missing data leaves T at its zero value.
func Decode[T any](data json.RawMessage, detail *ErrorDetail) Result[T] {
	if detail != nil {
		return Err[T](detail)
	}
	var value T
	if len(data) == 0 || string(data) == "null" {
		return Ok(value)
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return Err[T](&ErrorDetail{Message: "unexpected response shape: " + err.Error(), Kind: errors.ErrMalformedResponse})
	}
	return Ok(value)
}
