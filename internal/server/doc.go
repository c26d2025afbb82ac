// Package server provides the HTTP surface of FaultBoard.
//
// This package is internal to FaultBoard and handles all HTTP concerns:
//
//   - Application pages: HTML responses of the wrapped application get the
//     current badge or overlay and the client script injected before </body>
//   - Views: the current view fragment at "<prefix>/view"
//   - Controls: expand, close, key and reload requests under "<prefix>/api/"
//   - Browser reports: window errors and unhandled rejections posted by the
//     client script to "<prefix>/api/report", rate limited
//   - Server-Sent Events: state changes at "<prefix>/api/sse"
//   - Metrics: Prometheus exposition at "<prefix>/metrics"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the faultboard library should not need to interact with this
// package directly. The server is started automatically by
// [faultboard.FaultBoard.Start].
package server
