//go:build !linux && !darwin && !windows

package storage

import (
	"io/fs"
	"time"
)

func createdAt(_ string, info fs.FileInfo) time.Time {
	return info.ModTime()
}
