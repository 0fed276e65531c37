package lsp

import (
	"context"
	"encoding/json"
	"log"

	"github.com/thanhtunguet/serena/internal/protocol"
)

// registerServerHandlers installs the default server->client request and
// notification handlers every connection supports regardless of language,
// per spec.md §6's "Methods served" list. Adapted from the teacher's
// server-request-handlers.go, unified into the engine's single
// map<method,handler> registry instead of separate request/notification
// handler maps (per the REDESIGN FLAGS note).
func (c *Connection) registerServerHandlers() {
	e := c.engine

	e.Handle("workspace/configuration", func(_ context.Context, params json.RawMessage) (any, error) {
		var p protocol.ConfigurationParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		result := make([]any, len(p.Items))
		return result, nil
	})

	e.Handle("client/registerCapability", func(_ context.Context, params json.RawMessage) (any, error) {
		var p protocol.RegistrationParams
		if err := json.Unmarshal(params, &p); err == nil && c.debug {
			for _, r := range p.Registrations {
				log.Printf("lsp: server registered capability %s (%s)", r.Method, r.ID)
			}
		}
		return nil, nil
	})

	e.Handle("client/unregisterCapability", func(_ context.Context, _ json.RawMessage) (any, error) {
		return nil, nil
	})

	e.Handle("window/workDoneProgress/create", func(_ context.Context, _ json.RawMessage) (any, error) {
		return nil, nil
	})

	e.Handle("window/logMessage", func(_ context.Context, params json.RawMessage) (any, error) {
		if !c.debug {
			return nil, nil
		}
		var p protocol.LogMessageParams
		if err := json.Unmarshal(params, &p); err == nil {
			log.Printf("lsp: server log [%d]: %s", p.Type, p.Message)
		}
		return nil, nil
	})

	e.Handle("window/showMessage", func(_ context.Context, params json.RawMessage) (any, error) {
		var p protocol.ShowMessageParams
		if err := json.Unmarshal(params, &p); err == nil {
			log.Printf("lsp: server message [%d]: %s", p.Type, p.Message)
		}
		return nil, nil
	})
}
