package faultboard

import (
	"context"
	"net/http"
	"sync"
)

type (
	componentsKey struct{}
	trailKey      struct{}
)

// componentTrail holds the component chain active in a wrapped request.
// It outlives the derived requests Component creates, so the recovering
// handler can still read it after a panic unwinds them.
type componentTrail struct {
	mu    sync.Mutex
	names []string
}

func (t *componentTrail) set(names []string) {
	t.mu.Lock()
	t.names = names
	t.mu.Unlock()
}

func (t *componentTrail) get() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.names
}

// Component names a part of the application for the component trace.
//
// A render-path failure inside h lists every enclosing Component, innermost
// first, in the captured error's ComponentTrace:
//
//	mux.Handle("/orders", faultboard.Component("OrdersPage",
//	    faultboard.Component("OrderTable", tableHandler)))
//
// The trace ends with the request method and path. A failure outside any
// Component has no component trace. Components only show up in the trace
// when they run inside [Boundary.Wrap].
func Component(name string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parent := componentsFrom(r.Context())
		ctx := withComponent(r.Context(), name)

		trail, ok := r.Context().Value(trailKey{}).(*componentTrail)
		if !ok {
			h.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		trail.set(componentsFrom(ctx))
		h.ServeHTTP(w, r.WithContext(ctx))
		// not deferred: after a panic the trail must keep the failing chain
		trail.set(parent)
	})
}

// withComponent returns a context with name pushed onto its component chain.
func withComponent(ctx context.Context, name string) context.Context {
	parent := componentsFrom(ctx)
	names := make([]string, len(parent), len(parent)+1)
	copy(names, parent)
	return context.WithValue(ctx, componentsKey{}, append(names, name))
}

// componentsFrom returns the component chain of ctx, outermost first.
func componentsFrom(ctx context.Context) []string {
	names, _ := ctx.Value(componentsKey{}).([]string)
	return names
}

// withTrail returns r carrying a fresh component trail.
func withTrail(r *http.Request) (*http.Request, *componentTrail) {
	trail := &componentTrail{}
	return r.WithContext(context.WithValue(r.Context(), trailKey{}, trail)), trail
}
