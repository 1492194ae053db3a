package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/LanDrop/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/id"
	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/types"
	"github.com/GriffinCanCode/LanDrop/backend/internal/storage"
)

// CheckFiles reports which of the requested relative paths already exist
func (h *Handlers) CheckFiles(c *gin.Context) {
	var req types.CheckFilesRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FileNames == nil {
		h.respondError(c, "Invalid check request", validationError("check", "fileNames must be an array"))
		return
	}

	conflicts := h.store.Conflicts(req.FileNames)
	h.metrics.RecordConflictCheck(len(conflicts))

	c.JSON(http.StatusOK, types.CheckFilesResponse{
		Success:   true,
		Conflicts: conflicts,
	})
}

// maxFieldBytes caps a single non-file form field.
const maxFieldBytes = 64 << 10

// Upload streams every file part of a multipart request to disk,
// preserving the client supplied folder structure. Parts are staged as
// they arrive and moved to their targets once the whole form has been
// read, since path fields may follow the file parts they describe.
func (h *Handlers) Upload(c *gin.Context) {
	timer := monitoring.NewTimer(h.metrics, "upload")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxRequestBytes)
	mr, err := c.Request.MultipartReader()
	if err != nil {
		err = validationError("upload", "expected a multipart/form-data body")
		timer.Stop(storage.KindOf(err))
		h.respondError(c, "Upload failed", err)
		return
	}

	staged, fields, err := h.receiveParts(c, mr)
	defer func() {
		for _, st := range staged {
			h.store.Discard(st)
		}
	}()
	if err != nil {
		h.metrics.RecordUpload(0, 0, 1)
		timer.Stop(storage.KindOf(err))
		h.respondError(c, "Upload failed", err)
		return
	}
	if len(staged) == 0 {
		err := validationError("upload", "no files received")
		timer.Stop(storage.KindOf(err))
		h.respondError(c, "No files received", err)
		return
	}

	relPaths := relativePaths(fields, len(staged))
	uploaded := make([]types.UploadedFile, 0, len(staged))
	var written int64

	for i, st := range staged {
		result, err := h.store.Commit(st, relPaths[i])
		if err != nil {
			h.metrics.RecordUpload(len(uploaded), written, 1)
			timer.Stop(storage.KindOf(err))
			h.respondError(c, "Upload failed", err)
			return
		}
		uploaded = append(uploaded, *result)
		written += result.Size
	}

	h.metrics.RecordUpload(len(uploaded), written, 0)
	timer.Stop("ok")
	logFields := []zap.Field{
		zap.Int("files", len(uploaded)),
		zap.Int64("bytes", written),
		zap.String("client", c.ClientIP()),
	}
	if batch, err := id.ParseBatchID(c.GetHeader(types.BatchHeader)); err == nil {
		logFields = append(logFields, zap.String("batch", batch.String()), zap.Time("batch_queued", batch.Time()))
	}
	h.logger.Info("Upload complete", logFields...)

	c.JSON(http.StatusOK, types.UploadResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully uploaded %d file(s)", len(uploaded)),
		Files:   uploaded,
	})
}

// receiveParts reads the form part by part. File parts under "files" are
// staged; other fields are collected. The first failing part ends the
// request, and the caller discards everything staged so far.
func (h *Handlers) receiveParts(c *gin.Context, mr *multipart.Reader) ([]*storage.Staged, map[string][]string, error) {
	var staged []*storage.Staged
	fields := make(map[string][]string)
	maxFields := 2*h.opts.MaxFilesPerBatch + 16
	nFields := 0

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return staged, fields, nil
		}
		if err != nil {
			return staged, fields, bodyError(err)
		}

		if part.FormName() == "files" && part.FileName() != "" {
			if len(staged) == h.opts.MaxFilesPerBatch {
				part.Close()
				return staged, fields, validationError("upload", fmt.Sprintf("more than %d files in one batch", h.opts.MaxFilesPerBatch))
			}
			body := &partReader{r: part}
			st, err := h.store.Stage(c.Request.Context(), storage.Part{
				Filename:    part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Size:        -1,
				Body:        body,
			})
			part.Close()
			if err != nil {
				if body.err != nil {
					return staged, fields, bodyError(body.err)
				}
				return staged, fields, err
			}
			staged = append(staged, st)
			continue
		}

		nFields++
		if nFields > maxFields {
			part.Close()
			return staged, fields, validationError("upload", "too many form fields")
		}
		value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
		part.Close()
		if err != nil {
			return staged, fields, bodyError(err)
		}
		if len(value) > maxFieldBytes {
			return staged, fields, validationError("upload", fmt.Sprintf("form field %q is too long", part.FormName()))
		}
		fields[part.FormName()] = append(fields[part.FormName()], string(value))
	}
}

// bodyError classifies a failure while reading the request body. Hitting
// the request cap counts as FileTooLarge; other transport failures mean a
// malformed body.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &storage.OpError{Op: "upload", Kind: storage.ErrFileTooLarge, Err: err}
	}
	return validationError("upload", "malformed multipart body")
}

// partReader remembers the last read error so transport failures can be
// told apart from disk failures while staging.
type partReader struct {
	r   io.Reader
	err error
}

func (p *partReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if err != nil && !errors.Is(err, io.EOF) {
		p.err = err
	}
	return n, err
}

// relativePaths collects the per-part relative paths. Indexed fields
// (relativePaths[i], relativePath_i) win over a JSON array field.
func relativePaths(fields map[string][]string, n int) []string {
	paths := make([]string, n)

	if raw := fields["relativePaths"]; len(raw) == 1 && strings.HasPrefix(strings.TrimSpace(raw[0]), "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw[0]), &list); err == nil {
			copy(paths, list)
		}
	}

	for i := range paths {
		idx := strconv.Itoa(i)
		for _, key := range []string{"relativePaths[" + idx + "]", "relativePath_" + idx} {
			if v := fields[key]; len(v) > 0 && v[0] != "" {
				paths[i] = v[0]
				break
			}
		}
	}
	return paths
}

// ListFiles returns the recursive tree of the storage root, or of the
// subtree named by ?path=
func (h *Handlers) ListFiles(c *gin.Context) {
	timer := monitoring.NewTimer(h.metrics, "list")

	tree, err := h.store.Tree(c.Request.Context(), c.Query("path"))
	if err != nil {
		timer.Stop(storage.KindOf(err))
		h.respondError(c, "Failed to list files", err)
		return
	}
	timer.Stop("ok")
	h.metrics.RecordListing(len(tree.Skipped))

	c.JSON(http.StatusOK, types.ListResponse{
		Success: true,
		Files:   tree.Entries,
		Skipped: tree.Skipped,
	})
}

// Download streams one file as an attachment. Range requests are honored.
func (h *Handlers) Download(c *gin.Context) {
	f, info, err := h.store.Open(c.Param("path"))
	if err != nil {
		h.respondError(c, "Download failed", err)
		return
	}
	defer f.Close()

	contentType := "application/octet-stream"
	if mtype, err := mimetype.DetectReader(f); err == nil {
		contentType = mtype.String()
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		h.respondError(c, "Download failed", &storage.OpError{Op: "download", Kind: storage.ErrIO, Err: err})
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": info.Name()})
	if disposition == "" {
		disposition = "attachment"
	}

	h.metrics.RecordDownload()
	c.Header("Content-Disposition", disposition)
	c.Header("Content-Type", contentType)
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

// Delete removes a file, or a directory with all of its contents
func (h *Handlers) Delete(c *gin.Context) {
	kind, err := h.store.Delete(c.Param("path"))
	if err != nil {
		h.respondError(c, "Delete failed", err)
		return
	}
	h.metrics.RecordDelete(string(kind))

	msg := "File deleted successfully"
	if kind == types.TypeDirectory {
		msg = "Folder deleted successfully"
	}
	c.JSON(http.StatusOK, types.MessageResponse{Success: true, Message: msg})
}
