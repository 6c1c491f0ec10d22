package session

import (
	"context"
	"fmt"

	"github.com/danmuck/shiftctl/internal/observability"
	"github.com/danmuck/shiftctl/internal/protocol"
	"github.com/danmuck/shiftctl/internal/protocol/frame"
)

// Router sends each request frame to the handler registered for its tag, so
// one listener can serve several schemas.
type Router struct {
	routes map[uint32]route
}

type route struct {
	schema  string
	handler Handler
}

func NewRouter() *Router {
	return &Router{routes: make(map[uint32]route)}
}

// Handle registers h for every tag in types. A tag can only be owned once.
func (r *Router) Handle(schema string, types []uint32, h Handler) error {
	for _, mt := range types {
		if prev, ok := r.routes[mt]; ok {
			return fmt.Errorf("session: message_type %#04x already routed to %s", mt, prev.schema)
		}
	}
	for _, mt := range types {
		r.routes[mt] = route{schema: schema, handler: h}
	}
	return nil
}

// Schemas lists the schemas with at least one route.
func (r *Router) Schemas() map[string]int {
	out := make(map[string]int)
	for _, rt := range r.routes {
		out[rt.schema]++
	}
	return out
}

func (r *Router) ServeFrame(ctx context.Context, f frame.Frame) (frame.Frame, error) {
	rt, ok := r.routes[f.Header.MessageType]
	if !ok {
		observability.RecordMalformedFrame("unrouted")
		return frame.Frame{}, protocol.Malformed("session", f.Header.MessageType, "no route", nil)
	}
	return rt.handler.ServeFrame(ctx, f)
}
