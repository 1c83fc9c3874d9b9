// Package cleaner implements the metadata-cleaning engine: per-file
// operations that strip privacy-sensitive metadata (alternate data streams,
// timestamps, ownership, embedded document properties) and the aggregation
// of per-operation outcomes into a report.
package cleaner

import (
	"strings"

	"github.com/teranos/metaclean/errors"
)

// OperationKind identifies one of the four cleaning operations.
type OperationKind int

const (
	KindStreams OperationKind = iota
	KindTimestamps
	KindOfficeProperties
	KindOwner
)

// operationOrder is the fixed dispatch order for every file.
var operationOrder = []OperationKind{
	KindStreams,
	KindTimestamps,
	KindOfficeProperties,
	KindOwner,
}

func (k OperationKind) String() string {
	switch k {
	case KindStreams:
		return "streams"
	case KindTimestamps:
		return "timestamps"
	case KindOfficeProperties:
		return "office_properties"
	case KindOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// ParseOperationKind resolves an operation name from configuration
// (cleaner.custom_ops) into its kind.
func ParseOperationKind(name string) (OperationKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "streams":
		return KindStreams, nil
	case "timestamps":
		return KindTimestamps, nil
	case "office_properties", "office":
		return KindOfficeProperties, nil
	case "owner":
		return KindOwner, nil
	default:
		return 0, errors.Newf("unknown operation %q (valid: streams, timestamps, office_properties, owner)", name)
	}
}

// CleanMode determines which operations are attempted per file.
type CleanMode int

const (
	// ModeQuick attempts streams and timestamps only.
	ModeQuick CleanMode = iota
	// ModeStandard attempts everything except owner clearing.
	ModeStandard
	// ModeFull attempts all four operations.
	ModeFull
	// ModeCustom attempts the set configured in cleaner.custom_ops.
	ModeCustom
)

func (m CleanMode) String() string {
	switch m {
	case ModeQuick:
		return "quick"
	case ModeStandard:
		return "standard"
	case ModeFull:
		return "full"
	case ModeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseCleanMode resolves a mode name from the CLI --mode flag.
func ParseCleanMode(name string) (CleanMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "quick":
		return ModeQuick, nil
	case "standard":
		return ModeStandard, nil
	case "full":
		return ModeFull, nil
	case "custom":
		return ModeCustom, nil
	default:
		return 0, errors.Newf("unknown clean mode %q (valid: quick, standard, full, custom)", name)
	}
}

// ops returns the operation kinds this mode attempts, in dispatch order.
// custom is only consulted for ModeCustom.
func (m CleanMode) ops(custom []OperationKind) []OperationKind {
	switch m {
	case ModeQuick:
		return []OperationKind{KindStreams, KindTimestamps}
	case ModeStandard:
		return []OperationKind{KindStreams, KindTimestamps, KindOfficeProperties}
	case ModeFull:
		return append([]OperationKind(nil), operationOrder...)
	case ModeCustom:
		// Reorder the custom set into dispatch order
		want := make(map[OperationKind]bool, len(custom))
		for _, k := range custom {
			want[k] = true
		}
		var ordered []OperationKind
		for _, k := range operationOrder {
			if want[k] {
				ordered = append(ordered, k)
			}
		}
		return ordered
	default:
		return nil
	}
}

// CleanOptions controls one engine invocation. Immutable for its duration;
// owned by the caller and read-only to the engine.
type CleanOptions struct {
	Mode             CleanMode
	DryRun           bool
	Verbose          bool
	ElevateOwnership bool
}

// Status classifies the result of one operation on one file.
type Status int

const (
	// StatusApplied means the operation mutated the file.
	StatusApplied Status = iota
	// StatusWouldApply is the dry-run counterpart of StatusApplied: the
	// mutation was computed but not performed.
	StatusWouldApply
	// StatusSkipped means the operation had nothing to do or was not requested.
	StatusSkipped
	// StatusFailed means the operation was attempted and failed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusWouldApply:
		return "would_apply"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler for JSON report output.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// SkipReason explains a StatusSkipped outcome.
type SkipReason string

const (
	SkipNotRequested        SkipReason = "not_requested"
	SkipNoStreamsFound      SkipReason = "no_streams_found"
	SkipNotAnOfficeDocument SkipReason = "not_an_office_document"
	SkipAlreadyClean        SkipReason = "already_clean"
)

// ErrorKind classifies a StatusFailed outcome. Derived from the sentinel
// error chain of the underlying failure.
type ErrorKind string

const (
	ErrKindNotFound          ErrorKind = "not_found"
	ErrKindAccessDenied      ErrorKind = "access_denied"
	ErrKindResourceBusy      ErrorKind = "resource_busy"
	ErrKindPrivilegeRequired ErrorKind = "privilege_required"
	ErrKindUnsupported       ErrorKind = "unsupported"
	ErrKindCorruptContainer  ErrorKind = "corrupt_container"
	ErrKindPartialWrite      ErrorKind = "partial_write_failure"
	ErrKindTimeout           ErrorKind = "timeout"
	ErrKindUnknown           ErrorKind = "unknown"
)

// errorKindOf maps an error chain onto its report classification.
func errorKindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errors.ErrNotFound):
		return ErrKindNotFound
	case errors.Is(err, errors.ErrAccessDenied):
		return ErrKindAccessDenied
	case errors.Is(err, errors.ErrResourceBusy):
		return ErrKindResourceBusy
	case errors.Is(err, errors.ErrPrivilegeRequired):
		return ErrKindPrivilegeRequired
	case errors.Is(err, errors.ErrUnsupported):
		return ErrKindUnsupported
	case errors.Is(err, errors.ErrCorruptContainer):
		return ErrKindCorruptContainer
	case errors.Is(err, errors.ErrPartialWrite):
		return ErrKindPartialWrite
	case errors.Is(err, errors.ErrTimeout):
		return ErrKindTimeout
	default:
		return ErrKindUnknown
	}
}

// OperationOutcome records what one operation did to one file.
// Immutable once produced.
type OperationOutcome struct {
	Kind   OperationKind `json:"kind"`
	Status Status        `json:"status"`
	Skip   SkipReason    `json:"skip_reason,omitempty"`
	Error  ErrorKind     `json:"error_kind,omitempty"`
	Detail string        `json:"detail,omitempty"`
}

// MarshalText renders the kind name in JSON report output.
func (k OperationKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func applied(kind OperationKind, dryRun bool, detail string) OperationOutcome {
	status := StatusApplied
	if dryRun {
		status = StatusWouldApply
	}
	return OperationOutcome{Kind: kind, Status: status, Detail: detail}
}

func skipped(kind OperationKind, reason SkipReason, detail string) OperationOutcome {
	return OperationOutcome{Kind: kind, Status: StatusSkipped, Skip: reason, Detail: detail}
}

func failed(kind OperationKind, err error) OperationOutcome {
	return OperationOutcome{
		Kind:   kind,
		Status: StatusFailed,
		Error:  errorKindOf(err),
		Detail: err.Error(),
	}
}

// FileResult holds the ordered outcomes for one processed file. Created by
// the engine, never mutated after the file finishes processing.
type FileResult struct {
	Path     string             `json:"path"`
	Outcomes []OperationOutcome `json:"outcomes"`
}

// Outcome returns the outcome for the given kind, if present.
func (r *FileResult) Outcome(kind OperationKind) (OperationOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			return o, true
		}
	}
	return OperationOutcome{}, false
}

// Failed reports whether any operation on this file failed.
func (r *FileResult) Failed() bool {
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			return true
		}
	}
	return false
}

// KindCounts summarizes outcomes for one operation kind.
type KindCounts struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ReportCounts is the derived summary of a finished report.
type ReportCounts struct {
	Files   int                          `json:"files"`
	Failed  int                          `json:"failed_files"`
	PerKind map[OperationKind]KindCounts `json:"per_kind"`
}

// CleanReport aggregates the results of one run. Append-only while the run
// is in flight; Finalize computes the derived counts once all paths are
// processed.
type CleanReport struct {
	Results []FileResult `json:"results"`
	Counts  ReportCounts `json:"counts"`
}

// Finalize computes the summary counts. WouldApply counts as Applied so
// dry-run summaries mirror live summaries.
func (r *CleanReport) Finalize() {
	counts := ReportCounts{
		Files:   len(r.Results),
		PerKind: make(map[OperationKind]KindCounts, len(operationOrder)),
	}
	for _, fr := range r.Results {
		if fr.Failed() {
			counts.Failed++
		}
		for _, o := range fr.Outcomes {
			kc := counts.PerKind[o.Kind]
			switch o.Status {
			case StatusApplied, StatusWouldApply:
				kc.Applied++
			case StatusSkipped:
				kc.Skipped++
			case StatusFailed:
				kc.Failed++
			}
			counts.PerKind[o.Kind] = kc
		}
	}
	r.Counts = counts
}

// HasFailures reports whether any operation in the run failed. Callers use
// this to decide the process exit code.
func (r *CleanReport) HasFailures() bool {
	for i := range r.Results {
		if r.Results[i].Failed() {
			return true
		}
	}
	return false
}
