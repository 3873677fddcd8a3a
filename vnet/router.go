// Package vnet is the simulated network fabric:
// an in-process dispatch table mapping node identity
// to that node's message handler.
//
// Messages never leave the current process.
// Each delivery is dispatched synchronously and runs to completion
// before the next delivery of the same broadcast begins.
package vnet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/veld-engine/veld/vchain"
)

// Handler receives messages addressed to one node.
//
// Handlers are registered once during bootstrap
// and invoked synchronously by [*Router.Send].
type Handler interface {
	HandleMessage(ctx context.Context, from vchain.NodeID, msg Message) error
}

// Router maps NodeIDs to their message handlers.
//
// The mapping is populated during bootstrap, one registration per node,
// and is read-only during steady-state operation.
type Router struct {
	log *slog.Logger

	mu       sync.RWMutex
	handlers map[vchain.NodeID]Handler

	// Registration order doubles as broadcast order,
	// and bootstrap registers nodes in NodeID order.
	order []vchain.NodeID
}

// NewRouter returns an empty Router.
func NewRouter(log *slog.Logger) *Router {
	return &Router{
		log: log,

		handlers: make(map[vchain.NodeID]Handler),
	}
}

// Register installs h as the handler for node id.
// Registering the same id twice is a bootstrap bug and panics.
func (r *Router) Register(id vchain.NodeID, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[id]; ok {
		panic(fmt.Errorf("BUG: node %d registered twice", id))
	}

	r.handlers[id] = h
	r.order = append(r.order, id)
}

// Send delivers msg from node from to node to, synchronously.
// Sending to an unregistered node is a startup-invariant violation
// and panics; it is not a recoverable runtime condition.
//
// The handler's error, if any, is returned to the sender.
func (r *Router) Send(ctx context.Context, from, to vchain.NodeID, msg Message) error {
	r.mu.RLock()
	h, ok := r.handlers[to]
	r.mu.RUnlock()

	if !ok {
		panic(fmt.Errorf("BUG: send from %d to unregistered node %d", from, to))
	}

	if err := h.HandleMessage(ctx, from, msg); err != nil {
		return fmt.Errorf("delivery from %d to %d failed: %w", from, to, err)
	}
	return nil
}

// Broadcast sends msg to every registered node, including from itself.
// Self-delivery is intentional: a leader processes its own freshly
// mined block through the normal block-handling path.
//
// Each delivery runs to completion before the next begins.
// A failed delivery does not stop the fan-out;
// the joined errors are returned after every node has been attempted.
func (r *Router) Broadcast(ctx context.Context, from vchain.NodeID, msg Message) error {
	r.mu.RLock()
	order := r.order
	r.mu.RUnlock()

	var errs []error
	for _, to := range order {
		if err := r.Send(ctx, from, to, msg); err != nil {
			r.log.Warn("Broadcast delivery failed", "from", from, "to", to, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nodes returns the registered node IDs in registration order.
func (r *Router) Nodes() []vchain.NodeID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]vchain.NodeID, len(r.order))
	copy(out, r.order)
	return out
}
