//go:build linux

package cleaner

import (
	"os"
	"syscall"
	"time"
)

func statAccessTime(fi os.FileInfo) time.Time {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Atim.Sec, st.Atim.Nsec).UTC()
	}
	return fi.ModTime().UTC()
}
