package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/textmap-mcp/internal/render"
	"github.com/ironsheep/textmap-mcp/internal/session"
	"github.com/ironsheep/textmap-mcp/internal/source"
)

// errConnectionClosed fails requests still waiting when the client goes away.
var errConnectionClosed = errors.New("client connection closed")

// call sends a request to the client and waits for its response, decoding
// the result into out.
func (s *Server) call(ctx context.Context, method string, params, out interface{}) error {
	ch := make(chan *rpcMessage, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errConnectionClosed
	}
	s.nextID++
	id := s.nextID
	key := fmt.Sprint(id)
	s.pending[key] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
	}()

	if err := s.send(outgoingRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("failed to send %s: %w", method, err)
	}

	select {
	case msg, ok := <-ch:
		if !ok {
			return errConnectionClosed
		}
		if msg.Error != nil {
			return fmt.Errorf("%s failed (%d): %s", method, msg.Error.Code, msg.Error.Message)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(msg.Result, out); err != nil {
			return fmt.Errorf("invalid %s result: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolve hands a client response to the call waiting for it.
func (s *Server) resolve(msg *rpcMessage) {
	var id interface{}
	if err := json.Unmarshal(msg.ID, &id); err != nil || id == nil {
		s.log.Warn("dropping response without id")
		return
	}
	key := fmt.Sprint(id)

	s.mu.Lock()
	ch, ok := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()

	if !ok {
		s.log.Warn("dropping response to unknown request %s", key)
		return
	}
	ch <- msg
}

// closePending fails every outstanding call and refuses new ones.
func (s *Server) closePending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, ch := range s.pending {
		close(ch)
		delete(s.pending, key)
	}
}

func (s *Server) clientCanElicit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canElicit
}

// Elicit implements source.Elicitor with an elicitation/create request.
func (s *Server) Elicit(ctx context.Context, message string, schema map[string]interface{}) (*source.ElicitResult, error) {
	if !s.clientCanElicit() {
		return nil, source.ErrElicitationUnsupported
	}

	var res source.ElicitResult
	err := s.call(ctx, "elicitation/create", map[string]interface{}{
		"message":         message,
		"requestedSchema": schema,
	}, &res)
	if err != nil {
		return nil, err
	}
	s.log.Debug("elicitation answered: %s", res.Action)
	return &res, nil
}

// ShowMessage implements session.Notifier and render.Messenger. The alert
// is an elicitation with no fields, so the tool call waits until the user
// dismisses it. Clients that cannot elicit get a log notification instead.
func (s *Server) ShowMessage(ctx context.Context, title, message string) error {
	if s.clientCanElicit() {
		_, err := s.Elicit(ctx, title+": "+message, map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		})
		return err
	}

	return s.notify("notifications/message", map[string]interface{}{
		"level":  alertLevel(title),
		"logger": "textmap",
		"data": map[string]interface{}{
			"title":   title,
			"message": message,
		},
	})
}

func alertLevel(title string) string {
	switch title {
	case render.BlockAlertTitle:
		return "info"
	case session.TitlePermissionDenied:
		return "warning"
	default:
		return "error"
	}
}
