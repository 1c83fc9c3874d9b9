//go:build darwin

package cleaner

import (
	"os"
	"syscall"
	"time"
)

func statAccessTime(fi os.FileInfo) time.Time {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Atimespec.Sec, st.Atimespec.Nsec).UTC()
	}
	return fi.ModTime().UTC()
}
