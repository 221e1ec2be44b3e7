// Package tables implements the shared tables of the GET cache dataplane.
//
// The cache table and the pending key queue are shared by every execution
// core. The cache is direct-mapped: a key lives in slot hash % N or nowhere,
// and each slot is guarded by its own lock, held only for a single inspect or
// write. The pending key queue correlates a cache miss seen on the request
// side with the server reply seen on the egress side, relying on replies
// coming back in request order.
//
// Statistics and parsing contexts are core-local: every core writes only its
// own slots, which the control plane reads and sums.
package tables
