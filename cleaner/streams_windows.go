//go:build windows

package cleaner

import (
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/teranos/metaclean/errors"
)

// FindFirstStreamW / FindNextStreamW are not surfaced by x/sys/windows;
// resolve them from kernel32 directly.
var (
	modkernel32          = windows.NewLazySystemDLL("kernel32.dll")
	procFindFirstStreamW = modkernel32.NewProc("FindFirstStreamW")
	procFindNextStreamW  = modkernel32.NewProc("FindNextStreamW")
)

const (
	findStreamInfoStandard = 0
	errorHandleEOF         = 38 // ERROR_HANDLE_EOF
)

// win32FindStreamData mirrors WIN32_FIND_STREAM_DATA.
type win32FindStreamData struct {
	StreamSize int64
	StreamName [296]uint16 // MAX_PATH + 36
}

type windowsStreamIter struct {
	handle  windows.Handle
	data    win32FindStreamData
	first   bool
	closed  bool
	iterErr error
}

// enumerateStreams opens a volume-level stream listing for path.
func enumerateStreams(path string) (StreamIter, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, errors.Wrap(err, "invalid path")
	}

	iter := &windowsStreamIter{first: true}
	r1, _, e1 := procFindFirstStreamW.Call(
		uintptr(unsafe.Pointer(p)),
		findStreamInfoStandard,
		uintptr(unsafe.Pointer(&iter.data)),
		0,
	)
	handle := windows.Handle(r1)
	if handle == windows.InvalidHandle {
		if errno, ok := e1.(windows.Errno); ok {
			if errno == errorHandleEOF {
				// Entry exists but carries no streams at all
				iter.closed = true
				return iter, nil
			}
			return nil, classifyWindowsError(errno)
		}
		return nil, errors.WrapSentinel(errors.ErrUnsupported, e1)
	}

	iter.handle = handle
	return iter, nil
}

func (it *windowsStreamIter) Next() (StreamInfo, bool) {
	if it.closed {
		return StreamInfo{}, false
	}

	if it.first {
		it.first = false
		return it.current(), true
	}

	r1, _, e1 := procFindNextStreamW.Call(
		uintptr(it.handle),
		uintptr(unsafe.Pointer(&it.data)),
	)
	if r1 == 0 {
		if errno, ok := e1.(windows.Errno); ok && errno != errorHandleEOF {
			it.iterErr = classifyWindowsError(errno)
		}
		it.Close()
		return StreamInfo{}, false
	}
	return it.current(), true
}

func (it *windowsStreamIter) current() StreamInfo {
	return StreamInfo{
		Name: bareStreamName(windows.UTF16ToString(it.data.StreamName[:])),
		Size: it.data.StreamSize,
	}
}

func (it *windowsStreamIter) Err() error { return it.iterErr }

func (it *windowsStreamIter) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	if it.handle != 0 {
		return windows.FindClose(it.handle)
	}
	return nil
}

// bareStreamName strips the ":name:$DATA" decoration of the listing API.
// The primary stream ("::$DATA") maps to the empty name.
func bareStreamName(decorated string) string {
	name := strings.TrimPrefix(decorated, ":")
	name = strings.TrimSuffix(name, ":$DATA")
	return name
}

// removeStream deletes one named stream via its composite path.
func removeStream(path, stream string) error {
	p, err := windows.UTF16PtrFromString(path + ":" + stream)
	if err != nil {
		return errors.Wrap(err, "invalid stream path")
	}
	if err := windows.DeleteFile(p); err != nil {
		if errno, ok := err.(windows.Errno); ok {
			return classifyWindowsError(errno)
		}
		return errors.WithStack(err)
	}
	return nil
}
