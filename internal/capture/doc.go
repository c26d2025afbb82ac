// Package capture holds the most recent unhandled failure and the overlay's
// visibility.
//
// This package is internal to FaultBoard. It is organized in two layers:
//
//   - [State] and [Transition]: a tagged state value and a pure transition
//     function covering every (state, event) pair
//   - [Store]: a concurrency-safe holder that applies events in arrival order
//     and publishes every state change to subscribers
//
// The state machine has three phases: [PhaseClear], [PhaseCollapsed] and
// [PhaseExpanded]. Once an error has been captured no transition leads back
// to [PhaseClear]; only [Store.Restart], which models a full reload, does.
package capture
