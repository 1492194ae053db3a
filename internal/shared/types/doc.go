// Package types provides the wire types shared by the LanDrop server and client.
//
// Core Types:
//   - Entry: a node of the storage tree, either *FileEntry or *DirectoryEntry
//   - UploadedFile: per-file result of an upload batch
//
// Request/Response Types:
//   - InfoResponse: server identity (GET /)
//   - CheckFilesRequest, CheckFilesResponse: conflict check
//   - UploadResponse: upload batch result
//   - ListResponse: recursive listing
//   - ErrorResponse: uniform failure body
//
// Entries are a closed sum type. The JSON "type" field is only a wire
// discriminator; Go code switches on the concrete type:
//
//	switch e := entry.(type) {
//	case *types.DirectoryEntry:
//	    walk(e.Children)
//	case *types.FileEntry:
//	    total += e.Size
//	}
package types
