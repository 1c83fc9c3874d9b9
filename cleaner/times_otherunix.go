//go:build !windows && !linux && !darwin

package cleaner

import (
	"os"
	"time"
)

func statAccessTime(fi os.FileInfo) time.Time {
	return fi.ModTime().UTC()
}
