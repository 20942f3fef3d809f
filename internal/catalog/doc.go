// Package catalog provides the remote game catalog client. The
// reconciliation core consumes the Client interface; the HTTP
// implementation handles paging, authentication, and timeouts.
package catalog
