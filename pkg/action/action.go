// Package action defines the registry/dispatch mechanism that groups related
// operations under providers, filters providers by network support, and
// exposes a flat callable action list to the caller.
package action

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
)

var validate = validator.New()

// Action is one callable operation. It is owned by exactly one provider and
// is stateless beyond its closure over the provider's wallet reference.
type Action struct {
	// Name uniquely identifies the action within its provider.
	Name string
	// Description is the human-readable summary shown to callers.
	Description string
	// Schema is a prototype of the arguments struct, carrying the json and
	// validate tags callers can introspect before invoking.
	Schema any
	// Invoke validates its own arguments and executes the action, returning
	// a human-readable result summary or a typed error.
	Invoke func(ctx context.Context, args json.RawMessage) (string, error)
}

// DecodeArgs unmarshals raw JSON arguments into dst and validates them
// against the struct's validate tags. Both failure modes are INVALID_INPUT
// and surface before the action does any work.
func DecodeArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return txError.Wrap(txError.CodeInvalidInput, "failed to parse action arguments", err)
	}
	if err := validate.Struct(dst); err != nil {
		return txError.Wrap(txError.CodeInvalidInput, "action arguments failed validation", err)
	}
	return nil
}
