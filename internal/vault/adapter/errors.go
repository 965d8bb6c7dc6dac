package adapter

import (
	"errors"
	"fmt"

	"github.com/yungbote/vaultvoice-backend/internal/vault/store"
)

// ErrNotConnected means the user has no usable store credentials.
var ErrNotConnected = store.ErrNotConnected

// TransientError wraps any other store failure. Callers log it and move on.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	if e == nil {
		return "vault: transient failure"
	}
	return fmt.Sprintf("vault %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotConnected) {
		return err
	}
	var te *TransientError
	if errors.As(err, &te) {
		return err
	}
	return &TransientError{Op: op, Err: err}
}
