package cleaner

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/teranos/metaclean/errors"
)

// The two metadata parts of an Office Open XML container.
const (
	corePropsPart = "docProps/core.xml"
	appPropsPart  = "docProps/app.xml"
)

// Property elements blanked in each part. Creator, company, last-modified-by
// and related personal fields; unknown or custom properties outside this set
// are left untouched.
var (
	corePropertyElements = []string{
		"dc:creator",        // Author
		"cp:lastModifiedBy", // Last Modified By
		"dc:title",
		"dc:subject",
		"dc:description", // Comments
		"cp:keywords",
		"cp:category",
		"cp:contentStatus",
	}
	appPropertyElements = []string{
		"Company",
		"Manager",
		"HyperlinkBase",
	}
)

var zipMagic = []byte{'P', 'K'}

// ContainerPropertyScrubber rewrites a zip-based compound document so the
// known document-property elements are emptied while every other entry is
// copied raw: identical bytes, identical compression, identical order.
type ContainerPropertyScrubber struct {
	exts map[string]bool

	// Commit hooks, replaceable in tests.
	createTemp func(dir string) (*os.File, error)
	commit     func(tmpPath, path string) error
}

// NewContainerPropertyScrubber recognizes the given extensions (without
// leading dot) as container documents.
func NewContainerPropertyScrubber(extensions []string) *ContainerPropertyScrubber {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}
	return &ContainerPropertyScrubber{
		exts: exts,
		createTemp: func(dir string) (*os.File, error) {
			return os.CreateTemp(dir, ".metaclean-*.tmp")
		},
		commit: os.Rename,
	}
}

func (s *ContainerPropertyScrubber) Kind() OperationKind { return KindOfficeProperties }

// Recognizes reports whether the path's extension identifies a container
// document family this scrubber handles.
func (s *ContainerPropertyScrubber) Recognizes(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return ext != "" && s.exts[ext]
}

// Apply scrubs the document properties of path. The original file is
// replaced atomically (temp file in the same directory, rename over); a
// failure mid-write leaves the original untouched and removes the temp file.
// Dry-run computes the same result in memory and discards it.
func (s *ContainerPropertyScrubber) Apply(ctx context.Context, path string, dryRun bool) OperationOutcome {
	if !s.Recognizes(path) {
		return skipped(KindOfficeProperties, SkipNotAnOfficeDocument, "extension not recognized")
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return failed(KindOfficeProperties, errors.WrapSentinel(errors.ErrNotFound, err))
		}
		return failed(KindOfficeProperties, errors.WrapSentinel(errors.ErrAccessDenied, err))
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return failed(KindOfficeProperties, errors.WithStack(err))
	}

	// A file that does not even start with the zip signature is not an
	// Office document that happens to be broken, just a misnamed file.
	magic := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, magic); err != nil || !bytes.Equal(magic, zipMagic) {
		return skipped(KindOfficeProperties, SkipNotAnOfficeDocument, "not a zip container")
	}

	r, err := zip.NewReader(f, fi.Size())
	if err != nil {
		return failed(KindOfficeProperties, errors.WrapSentinel(errors.ErrCorruptContainer, err))
	}

	scrubbed, cleared, err := s.scrubParts(r)
	if err != nil {
		if errors.Is(err, errors.ErrCorruptContainer) {
			return failed(KindOfficeProperties, err)
		}
		return failed(KindOfficeProperties, errors.WithStack(err))
	}
	if scrubbed == nil {
		return skipped(KindOfficeProperties, SkipNotAnOfficeDocument, "no document property parts")
	}

	if len(cleared) == 0 {
		return skipped(KindOfficeProperties, SkipAlreadyClean, "")
	}

	detail := fmt.Sprintf("cleared %s", strings.Join(cleared, ", "))

	if dryRun {
		return applied(KindOfficeProperties, true, detail)
	}

	if err := s.rewrite(path, r, scrubbed); err != nil {
		return failed(KindOfficeProperties, err)
	}

	return applied(KindOfficeProperties, false, detail)
}

// scrubParts cleans the two property parts in memory. Returns nil scrubbed
// content when either part is absent (not an Office document).
func (s *ContainerPropertyScrubber) scrubParts(r *zip.Reader) (map[string][]byte, []string, error) {
	parts := map[string][]string{
		corePropsPart: corePropertyElements,
		appPropsPart:  appPropertyElements,
	}

	scrubbed := make(map[string][]byte, len(parts))
	var cleared []string

	for _, f := range r.File {
		tags, want := parts[f.Name]
		if !want {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, nil, errors.WrapSentinel(errors.ErrCorruptContainer, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, nil, errors.WrapSentinel(errors.ErrCorruptContainer, err)
		}

		out, changed := scrubElements(content, tags)
		scrubbed[f.Name] = out
		cleared = append(cleared, changed...)
	}

	if len(scrubbed) < len(parts) {
		return nil, nil, nil
	}
	return scrubbed, cleared, nil
}

// rewrite streams every entry of r into a temporary archive in path's
// directory, substituting the scrubbed property parts, and commits via
// rename only on full success.
func (s *ContainerPropertyScrubber) rewrite(path string, r *zip.Reader, scrubbed map[string][]byte) error {
	tmp, err := s.createTemp(filepath.Dir(path))
	if err != nil {
		return errors.WrapSentinel(errors.ErrPartialWrite, err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, f := range r.File {
		if content, ok := scrubbed[f.Name]; ok {
			// Re-serialized part: same name, same compression method
			hdr := f.FileHeader
			w, err := zw.CreateHeader(&hdr)
			if err != nil {
				return errors.WrapSentinel(errors.ErrPartialWrite, err)
			}
			if _, err := w.Write(content); err != nil {
				return errors.WrapSentinel(errors.ErrPartialWrite, err)
			}
			continue
		}

		// Everything else is copied raw: the compressed bytes are never
		// touched so the entry stays byte-identical
		if err := zw.Copy(f); err != nil {
			return errors.WrapSentinel(errors.ErrPartialWrite, err)
		}
	}

	if err := zw.Close(); err != nil {
		return errors.WrapSentinel(errors.ErrPartialWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		return errors.WrapSentinel(errors.ErrPartialWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapSentinel(errors.ErrPartialWrite, err)
	}

	if err := s.commit(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.WrapSentinel(errors.ErrPartialWrite, err)
	}

	committed = true
	return nil
}

// elementPattern matches <tag>…</tag> or <tag attr="…">…</tag>, including
// multi-line content. Attributes on the element are dropped along with its
// text, matching how the property parts are normally written.
func elementPattern(tag string) *regexp.Regexp {
	q := regexp.QuoteMeta(tag)
	return regexp.MustCompile(`(?s)<` + q + `(?:\s[^>]*)?>.*?</` + q + `>`)
}

// scrubElements empties the text content of each known element, leaving all
// surrounding bytes of the document exactly as they were. Returns the tags
// that actually changed.
func scrubElements(content []byte, tags []string) ([]byte, []string) {
	var changed []string
	out := content
	for _, tag := range tags {
		re := elementPattern(tag)
		empty := []byte("<" + tag + "></" + tag + ">")
		next := re.ReplaceAll(out, empty)
		if !bytes.Equal(next, out) {
			changed = append(changed, tag)
			out = next
		}
	}
	return out, changed
}

// readProperties extracts the current values of the known property elements
// without mutating; used by Inspect. The bool reports whether the file is a
// recognized, parseable container with both property parts.
func (s *ContainerPropertyScrubber) readProperties(path string) (map[string]string, bool, error) {
	if !s.Recognizes(path) {
		return nil, false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, errors.WrapSentinel(errors.ErrNotFound, err)
		}
		return nil, false, errors.WrapSentinel(errors.ErrAccessDenied, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, false, errors.WithStack(err)
	}

	r, err := zip.NewReader(f, fi.Size())
	if err != nil {
		return nil, false, nil
	}

	parts := map[string][]string{
		corePropsPart: corePropertyElements,
		appPropsPart:  appPropertyElements,
	}

	props := make(map[string]string)
	found := 0
	for _, zf := range r.File {
		tags, want := parts[zf.Name]
		if !want {
			continue
		}
		found++

		rc, err := zf.Open()
		if err != nil {
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}

		for _, tag := range tags {
			q := regexp.QuoteMeta(tag)
			re := regexp.MustCompile(`(?s)<` + q + `(?:\s[^>]*)?>(.*?)</` + q + `>`)
			if m := re.FindSubmatch(content); m != nil {
				props[tag] = string(m[1])
			}
		}
	}

	return props, found == len(parts), nil
}
