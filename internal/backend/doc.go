// Package backend implements the typed REST client for the remote API.
//
// Every request carries the static bearer token plus the apikey header.
// Responses are decoded into explicit DTOs with optional fields defaulted
// at the boundary; nothing loosely typed crosses into the store.
//
// Transport failures, timeouts and non-2xx statuses all surface as
// *TransportError. Callers treat them as non-fatal and defer to the next
// scheduled reconciliation tick.
package backend
