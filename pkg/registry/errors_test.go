package registry

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestInstallError_Classification(t *testing.T) {
	perm := NewPermanentError("bad graph", nil)
	if !IsPermanent(perm) {
		t.Error("Expected permanent classification")
	}

	trans := NewTransientError("busy", nil)
	if IsPermanent(trans) {
		t.Error("Transient error must not classify as permanent")
	}

	if IsPermanent(errors.New("plain")) {
		t.Error("Plain errors have no classification")
	}
}

func TestInstallError_Wrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := NewTransientError("install interrupted", cause).
		WithCode(ErrCodePluginFailed).
		WithPlugin("assets").
		WithOperation("install")

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to reach the cause through Unwrap")
	}

	wrapped := fmt.Errorf("run aborted: %w", err)
	if !HasCode(wrapped, ErrCodePluginFailed) {
		t.Error("Expected HasCode to see through wrapping")
	}
	if IsPermanent(wrapped) {
		t.Error("Wrapped transient error must stay transient")
	}
}

func TestInstallError_Message(t *testing.T) {
	err := NewPermanentError("cycle found", errors.New("a -> b -> a")).
		WithPlugin("a")

	msg := err.Error()
	for _, want := range []string{"permanent", "cycle found", "plugin=a", "a -> b -> a"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected message to contain %q, got: %s", want, msg)
		}
	}
}

func TestInstallError_Is(t *testing.T) {
	a := NewPermanentError("first", nil).WithCode(ErrCodeValidation)
	b := NewPermanentError("second", nil).WithCode(ErrCodeValidation)
	c := NewPermanentError("third", nil).WithCode(ErrCodeNotFound)

	if !errors.Is(a, b) {
		t.Error("Errors with equal class and code should match")
	}
	if errors.Is(a, c) {
		t.Error("Errors with different codes must not match")
	}
}
