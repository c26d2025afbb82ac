// Package upstream connects the standalone FaultBoard binary to the
// application it fronts.
//
// The main components are:
//
//   - [Client]: pooled HTTP client used to probe the upstream
//   - [WaitReady]: probes the upstream with exponential backoff until it answers
//   - [NewProxy]: reverse proxy forwarding application traffic upstream
//
// Users of the faultboard library should not need to interact with this
// package directly. It backs the "serve" command.
package upstream
