// Package stackplugins resolves a stack type string to its chunk/payload
// plugin pair, so callers never need to know which stack packages exist.
//
// Grounded on index_router.py's _stack_plugins helper: android_app wires
// the Android plugin pair, any other non-empty stack type gets an empty
// plugin set plus a base_payload carrying just the stack_type, and an
// empty stack type gets nothing at all.
package stackplugins

import (
	"github.com/sevigo/coderadar/internal/chunk"
	"github.com/sevigo/coderadar/internal/payload"
	"github.com/sevigo/coderadar/internal/stackplugins/android"
)

// Resolve returns the chunk plugins, payload plugins, and base payload
// overrides for stackType.
func Resolve(stackType string) ([]chunk.Plugin, []payload.Plugin, map[string]any) {
	switch stackType {
	case "":
		return nil, nil, nil
	case android.StackType:
		return []chunk.Plugin{android.NewChunkPlugin()}, []payload.Plugin{android.NewPayloadPlugin()}, map[string]any{"stack_type": stackType}
	default:
		return nil, nil, map[string]any{"stack_type": stackType}
	}
}
