// Package agenterr defines the orchestrator's failure taxonomy.
package agenterr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"time"
)

// Code classifies an AgentError.
type Code string

const (
	// CodeLLM marks transient generation failures: timeouts, rate limits,
	// aborted calls. Eligible for caller-level retry.
	CodeLLM Code = "LLM_ERROR"
	// CodeState marks malformed state, unexpected response shapes and
	// invariant violations. Never retried.
	CodeState Code = "STATE_ERROR"
)

// ErrUnknownSpecialist is returned when the generation backend names a tool
// outside the known specialist set.
var ErrUnknownSpecialist = errors.New("unknown specialist")

// transientPattern matches rate-limit and timeout wording in backend errors.
var transientPattern = regexp.MustCompile(`(?i)(rate.?limit|too many requests|\b429\b|timeout|timed out|deadline exceeded|abort)`)

// AgentError is a classified failure of a pipeline node.
type AgentError struct {
	Code        Code           `json:"code"`
	Message     string         `json:"message"`
	NodeID      string         `json:"node_id"`
	Recoverable bool           `json:"recoverable"`
	Timestamp   time.Time      `json:"timestamp"`
	Details     map[string]any `json:"details,omitempty"`

	cause error
}

// Error implements error.
func (e *AgentError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Code, e.NodeID, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AgentError) Unwrap() error {
	return e.cause
}

// New creates an AgentError with an explicit code.
func New(code Code, nodeID string, cause error, details map[string]any) *AgentError {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &AgentError{
		Code:        code,
		Message:     msg,
		NodeID:      nodeID,
		Recoverable: code == CodeLLM,
		Timestamp:   time.Now().UTC(),
		Details:     details,
		cause:       cause,
	}
}

// Classify converts a thrown error into an AgentError. Rate limits, timeouts
// and aborted calls are LLM_ERROR; everything else is STATE_ERROR. An error
// that is already classified keeps its code.
func Classify(err error, nodeID string, details map[string]any) *AgentError {
	if err == nil {
		return nil
	}
	var existing *AgentError
	if errors.As(err, &existing) {
		return existing
	}
	code := CodeState
	if IsTransient(err) {
		code = CodeLLM
	}
	return New(code, nodeID, err, details)
}

// IsTransient reports whether err indicates rate limiting, a timeout or an
// aborted call.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrUnknownSpecialist) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr.Recoverable
	}
	return transientPattern.MatchString(err.Error())
}

// IsRecoverable reports whether err is a recoverable AgentError.
func IsRecoverable(err error) bool {
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr.Recoverable
	}
	return false
}

// UserMessage returns the generic text shown to end users. Raw backend text is
// never exposed.
func UserMessage(err error) string {
	if IsRecoverable(err) {
		return "The assistant is temporarily unavailable. Please try again."
	}
	return "Something went wrong while answering your question."
}
