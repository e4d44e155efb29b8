// Package transport talks to the users REST API.
//
// Client implements the list/create/update/remove calls the client-side
// store depends on and collapses every failure (network errors, non-2xx
// responses, envelopes reporting success=false) into an *Error whose
// Error() is a single human-readable message. Watch subscribes to the
// server's change feed over WebSocket.
package transport
