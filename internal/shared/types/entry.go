package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntryType discriminates tree nodes on the wire.
type EntryType string

const (
	TypeFile      EntryType = "file"
	TypeDirectory EntryType = "directory"
)

// TimeFormat is the ISO-8601 layout used for entry timestamps.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Entry is a node of the storage tree.
type Entry interface {
	Type() EntryType
	RelPath() string
	entry()
}

// FileEntry describes a regular file under the storage root.
type FileEntry struct {
	Name       string
	Path       string
	Size       int64
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// DirectoryEntry describes a directory and its (recursively built) children.
type DirectoryEntry struct {
	Name     string
	Path     string
	Children []Entry
}

func (*FileEntry) Type() EntryType      { return TypeFile }
func (*DirectoryEntry) Type() EntryType { return TypeDirectory }

func (f *FileEntry) RelPath() string      { return f.Path }
func (d *DirectoryEntry) RelPath() string { return d.Path }

func (*FileEntry) entry()      {}
func (*DirectoryEntry) entry() {}

type fileEntryJSON struct {
	Name         string    `json:"name"`
	Type         EntryType `json:"type"`
	RelativePath string    `json:"relativePath"`
	Size         int64     `json:"size"`
	CreatedAt    string    `json:"createdAt"`
	ModifiedAt   string    `json:"modifiedAt"`
}

type directoryEntryJSON struct {
	Name         string            `json:"name"`
	Type         EntryType         `json:"type"`
	RelativePath string            `json:"relativePath"`
	Children     []json.RawMessage `json:"children"`
}

// MarshalJSON encodes the file with its "type" discriminator.
func (f *FileEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(fileEntryJSON{
		Name:         f.Name,
		Type:         TypeFile,
		RelativePath: f.Path,
		Size:         f.Size,
		CreatedAt:    f.CreatedAt.UTC().Format(TimeFormat),
		ModifiedAt:   f.ModifiedAt.UTC().Format(TimeFormat),
	})
}

// MarshalJSON encodes the directory and its children. A directory without
// children encodes "children": [] rather than null.
func (d *DirectoryEntry) MarshalJSON() ([]byte, error) {
	children := make([]json.RawMessage, 0, len(d.Children))
	for _, child := range d.Children {
		raw, err := json.Marshal(child)
		if err != nil {
			return nil, err
		}
		children = append(children, raw)
	}
	return json.Marshal(directoryEntryJSON{
		Name:         d.Name,
		Type:         TypeDirectory,
		RelativePath: d.Path,
		Children:     children,
	})
}

// DecodeEntry decodes one tree node, recursing into directory children.
func DecodeEntry(data []byte) (Entry, error) {
	var head struct {
		Type EntryType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case TypeFile:
		var raw fileEntryJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		created, err := parseTime(raw.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("createdAt of %q: %w", raw.RelativePath, err)
		}
		modified, err := parseTime(raw.ModifiedAt)
		if err != nil {
			return nil, fmt.Errorf("modifiedAt of %q: %w", raw.RelativePath, err)
		}
		return &FileEntry{
			Name:       raw.Name,
			Path:       raw.RelativePath,
			Size:       raw.Size,
			CreatedAt:  created,
			ModifiedAt: modified,
		}, nil
	case TypeDirectory:
		var raw directoryEntryJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		children, err := DecodeEntries(raw.Children)
		if err != nil {
			return nil, err
		}
		return &DirectoryEntry{Name: raw.Name, Path: raw.RelativePath, Children: children}, nil
	default:
		return nil, fmt.Errorf("unknown entry type %q", head.Type)
	}
}

// DecodeEntries decodes a list of raw tree nodes.
func DecodeEntries(raws []json.RawMessage) ([]Entry, error) {
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		e, err := DecodeEntry(raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
