package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/go-go-golems/boardwalk/pkg/turns"
)

// Engine represents a reasoning-model backend that can process a conversation
// Turn and append the model's response blocks. The model is stateless across
// calls; the full accumulated conversation is sent on every call.
type Engine interface {
	// RunInference processes a Turn and returns the updated Turn. The
	// returned Turn includes all original blocks plus the model's text
	// and/or tool_call blocks.
	RunInference(ctx context.Context, t *turns.Turn) (*turns.Turn, error)
}

// Sentinel errors used to classify engine failures. Callers match with
// errors.Is and map them onto their own error taxonomy.
var (
	// ErrAuthentication indicates a bad or missing provider credential.
	// Never retried.
	ErrAuthentication = errors.New("model provider authentication failed")
	// ErrModelProtocol indicates a structurally malformed model response.
	ErrModelProtocol = errors.New("malformed model response")
)
