package types

import (
	"encoding/json"
	"time"
)

// BatchHeader carries the client's upload batch id on POST /api/upload.
const BatchHeader = "X-Upload-Batch"

// InfoResponse identifies the server (GET /).
type InfoResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// CheckFilesRequest lists candidate relative paths for a conflict check.
type CheckFilesRequest struct {
	FileNames []string `json:"fileNames"`
}

// CheckFilesResponse reports which candidates already exist.
type CheckFilesResponse struct {
	Success   bool     `json:"success"`
	Conflicts []string `json:"conflicts"`
}

// UploadedFile is the per-file result of an upload batch.
type UploadedFile struct {
	OriginalName string    `json:"originalName"`
	Filename     string    `json:"filename"`
	RelativePath string    `json:"relativePath"`
	FullPath     string    `json:"fullPath"`
	Size         int64     `json:"size"`
	Mimetype     string    `json:"mimetype"`
	UploadTime   time.Time `json:"uploadTime"`
}

// UploadResponse is returned by POST /api/upload.
type UploadResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Files   []UploadedFile `json:"files"`
}

// ListResponse is returned by GET /api/files.
type ListResponse struct {
	Success bool     `json:"success"`
	Files   []Entry  `json:"files"`
	Skipped []string `json:"skipped,omitempty"`
}

// UnmarshalJSON decodes the polymorphic file tree.
func (l *ListResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Success bool              `json:"success"`
		Files   []json.RawMessage `json:"files"`
		Skipped []string          `json:"skipped"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	files, err := DecodeEntries(raw.Files)
	if err != nil {
		return err
	}
	l.Success = raw.Success
	l.Files = files
	l.Skipped = raw.Skipped
	return nil
}

// MessageResponse is a bare success acknowledgement (e.g. delete).
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the uniform failure body. Error carries the error kind.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
