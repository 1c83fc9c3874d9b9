package cleaner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/metaclean/errors"
)

// fakeStreamIter replays a fixed listing, optionally ending with an
// enumeration error.
type fakeStreamIter struct {
	streams []StreamInfo
	err     error
	pos     int
	closed  bool
}

func (f *fakeStreamIter) Next() (StreamInfo, bool) {
	if f.pos >= len(f.streams) {
		return StreamInfo{}, false
	}
	info := f.streams[f.pos]
	f.pos++
	return info, true
}

func (f *fakeStreamIter) Err() error   { return f.err }
func (f *fakeStreamIter) Close() error { f.closed = true; return nil }

func newTestSanitizer(iter *fakeStreamIter, remove func(path, stream string) error) *StreamSanitizer {
	s := NewStreamSanitizer(time.Second)
	s.enumerate = func(string) (StreamIter, error) { return iter, nil }
	s.remove = remove
	return s
}

func TestStreamSanitizerRemovesNamedStreamsOnly(t *testing.T) {
	iter := &fakeStreamIter{streams: []StreamInfo{
		{Name: "", Size: 1024},
		{Name: "Zone.Identifier", Size: 26},
		{Name: "thumb", Size: 512},
	}}

	var removed []string
	s := newTestSanitizer(iter, func(path, stream string) error {
		removed = append(removed, stream)
		return nil
	})

	out := s.Apply(context.Background(), "file.docx", false)
	assert.Equal(t, StatusApplied, out.Status)
	assert.Equal(t, []string{"Zone.Identifier", "thumb"}, removed)
	assert.Contains(t, out.Detail, "2 stream(s)")
	assert.True(t, iter.closed)
}

func TestStreamSanitizerNoStreamsFound(t *testing.T) {
	iter := &fakeStreamIter{streams: []StreamInfo{{Name: "", Size: 1024}}}
	s := newTestSanitizer(iter, func(path, stream string) error {
		t.Fatalf("remove called for %s", stream)
		return nil
	})

	out := s.Apply(context.Background(), "file.txt", false)
	assert.Equal(t, StatusSkipped, out.Status)
	assert.Equal(t, SkipNoStreamsFound, out.Skip)
}

func TestStreamSanitizerDryRunEnumeratesOnly(t *testing.T) {
	iter := &fakeStreamIter{streams: []StreamInfo{
		{Name: "", Size: 1024},
		{Name: "Zone.Identifier", Size: 26},
	}}
	s := newTestSanitizer(iter, func(path, stream string) error {
		t.Fatalf("remove called for %s during dry run", stream)
		return nil
	})

	out := s.Apply(context.Background(), "file.docx", true)
	assert.Equal(t, StatusWouldApply, out.Status)
	assert.Contains(t, out.Detail, "Zone.Identifier")
}

func TestStreamSanitizerLockedStreamContinues(t *testing.T) {
	iter := &fakeStreamIter{streams: []StreamInfo{
		{Name: "locked", Size: 10},
		{Name: "free", Size: 20},
	}}
	var removed []string
	s := newTestSanitizer(iter, func(path, stream string) error {
		if stream == "locked" {
			return errors.Wrap(errors.ErrResourceBusy, "sharing violation")
		}
		removed = append(removed, stream)
		return nil
	})

	out := s.Apply(context.Background(), "file.docx", false)
	// The free stream was still removed, but the file reports a failure
	require.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, ErrKindResourceBusy, out.Error)
	assert.Equal(t, []string{"free"}, removed)
	assert.Contains(t, out.Detail, "removed")
	assert.Contains(t, out.Detail, "locked")
}

func TestStreamSanitizerEnumerationError(t *testing.T) {
	s := NewStreamSanitizer(time.Second)
	s.enumerate = func(string) (StreamIter, error) {
		return nil, errors.Wrap(errors.ErrAccessDenied, "cannot open volume handle")
	}

	out := s.Apply(context.Background(), "file.docx", false)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, ErrKindAccessDenied, out.Error)
}

func TestStreamSanitizerIterErrSurfaces(t *testing.T) {
	iter := &fakeStreamIter{
		streams: []StreamInfo{{Name: "a", Size: 1}},
		err:     errors.Wrap(errors.ErrAccessDenied, "listing interrupted"),
	}
	s := newTestSanitizer(iter, func(path, stream string) error { return nil })

	out := s.Apply(context.Background(), "file.docx", false)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, ErrKindAccessDenied, out.Error)
}

func TestStreamSanitizerTimeout(t *testing.T) {
	s := NewStreamSanitizer(10 * time.Millisecond)
	s.enumerate = func(string) (StreamIter, error) {
		time.Sleep(time.Second)
		return &fakeStreamIter{}, nil
	}

	out := s.Apply(context.Background(), "file.docx", false)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, ErrKindTimeout, out.Error)
}

func TestStreamSanitizerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStreamSanitizer(time.Minute)
	s.enumerate = func(string) (StreamIter, error) {
		cancel()
		time.Sleep(time.Second)
		return &fakeStreamIter{}, nil
	}

	out := s.Apply(ctx, "file.docx", false)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, ErrKindTimeout, out.Error)
}
