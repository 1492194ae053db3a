// Package client is the Go client for a LanDrop server: the REST calls,
// the upload batch and the persisted server address.
package client
