package main

import (
	"errors"

	"recon/pkg/store"
)

const (
	exitFailure    = 1
	exitUsage      = 2
	exitValidation = 3
	exitDB         = 4
	exitNotFound   = 5
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCodeOf(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, store.ErrNotFound) {
		return exitNotFound
	}
	return exitFailure
}
