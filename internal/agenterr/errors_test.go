package agenterr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o failure" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		code        Code
		recoverable bool
	}{
		{"rate limit", errors.New("429 Too Many Requests: rate limit exceeded"), CodeLLM, true},
		{"rate limit underscore", errors.New("rate_limit_error"), CodeLLM, true},
		{"timeout text", errors.New("request timeout after 30s"), CodeLLM, true},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), CodeLLM, true},
		{"canceled", context.Canceled, CodeLLM, true},
		{"abort", errors.New("AbortError: the operation was aborted"), CodeLLM, true},
		{"net timeout", timeoutErr{}, CodeLLM, true},
		{"malformed", errors.New("unexpected response shape"), CodeState, false},
		{"nil pointer", errors.New("invalid memory address"), CodeState, false},
		{"unknown specialist named like timeout", fmt.Errorf("%w: %q", ErrUnknownSpecialist, "timeout-checker"), CodeState, false},
		{"unknown specialist named like rate limit", fmt.Errorf("%w: %q", ErrUnknownSpecialist, "rate_limit_auditor"), CodeState, false},
		{"unknown specialist named like abort", fmt.Errorf("%w: %q", ErrUnknownSpecialist, "abort-deal"), CodeState, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, "supervisor", map[string]any{"deal_id": "d1"})
			require.NotNil(t, got)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.recoverable, got.Recoverable)
			assert.Equal(t, "supervisor", got.NodeID)
			assert.False(t, got.Timestamp.IsZero())
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.Nil(t, Classify(nil, "supervisor", nil))
}

func TestClassify_KeepsExistingCode(t *testing.T) {
	original := New(CodeState, "supervisor", fmt.Errorf("timeout: %w", ErrUnknownSpecialist), nil)
	wrapped := fmt.Errorf("dispatch: %w", original)

	got := Classify(wrapped, "other", nil)
	assert.Same(t, original, got)
	assert.Equal(t, CodeState, got.Code)
}

func TestUserMessage_NeverLeaksBackendText(t *testing.T) {
	err := New(CodeState, "supervisor", errors.New("secret backend stack trace"), nil)
	assert.NotContains(t, UserMessage(err), "secret")
	assert.NotEqual(t, UserMessage(err), UserMessage(New(CodeLLM, "supervisor", errors.New("timeout"), nil)))
}
