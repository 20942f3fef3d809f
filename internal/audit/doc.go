// Package audit re-validates the linkage between a remote catalog collection
// and the local library. A run builds one match index for the collection,
// fetches the remote candidate set once, then classifies every local item
// across a bounded worker pool. At most one run executes per scheduler at any
// time; concurrent requests are rejected immediately.
package audit
