// Package http exposes the LanDrop storage over HTTP/JSON using gin.
//
// Endpoints:
//   - GET    /                        server info
//   - GET    /health                  liveness and running totals
//   - POST   /api/check-files         conflict check
//   - POST   /api/upload              multipart, folder preserving upload
//   - GET    /api/files               recursive tree listing (?path= for a subtree)
//   - GET    /api/download/*path      file download
//   - DELETE /api/files/*path         file or recursive folder delete
//
// Every failure is answered with {success:false, message, error} where
// error names the kind (ValidationError, NotFound, Forbidden, FileTooLarge,
// IOError).
package http
