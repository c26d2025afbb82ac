// Package dashboard renders the FaultBoard badge and overlay.
//
// This package uses Go's embed directive to include the view templates and
// the browser client script at compile time, so FaultBoard ships as a single
// binary without external asset files.
//
// The views are read-only projections of the capture state: they never
// mutate it, they only carry controls that post transition requests back to
// the server.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the view templates and the
// browser client script.
//
// The filesystem structure is:
//
//	assets/
//	  badge.tmpl    - collapsed indicator (fixed bottom-left button)
//	  overlay.tmpl  - full-viewport error overlay
//	  page.tmpl     - standalone page used when a handler fails outright
//	  client.js     - reports browser failures, forwards keys, keeps the view live
//
//go:embed assets/*
var Assets embed.FS
