// Package display renders clean reports and metadata snapshots for the
// terminal. JSON output is available for machine consumption.
package display

import (
	"fmt"
	"sort"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/metaclean/cleaner"
)

// statusLabel renders one outcome status with color.
func statusLabel(o cleaner.OperationOutcome) string {
	switch o.Status {
	case cleaner.StatusApplied:
		return pterm.Green("applied")
	case cleaner.StatusWouldApply:
		return pterm.Yellow("would apply")
	case cleaner.StatusSkipped:
		return pterm.Gray(fmt.Sprintf("skipped (%s)", o.Skip))
	case cleaner.StatusFailed:
		return pterm.Red(fmt.Sprintf("failed (%s)", o.Error))
	default:
		return "unknown"
	}
}

// RenderFileResult prints the outcomes of one file. verbose adds the
// per-operation detail lines.
func RenderFileResult(res *cleaner.FileResult, verbose bool) {
	if res.Failed() {
		pterm.Error.Printfln("%s", res.Path)
	} else {
		pterm.Success.Printfln("%s", res.Path)
	}

	for _, o := range res.Outcomes {
		line := fmt.Sprintf("  %-18s %s", o.Kind.String(), statusLabel(o))
		if verbose && o.Detail != "" {
			line += pterm.Gray("  " + o.Detail)
		}
		pterm.Println(line)
	}
}

// RenderReport prints the aggregated summary of a run.
func RenderReport(report *cleaner.CleanReport, verbose bool) {
	if verbose {
		for i := range report.Results {
			RenderFileResult(&report.Results[i], true)
		}
		pterm.Println()
	}

	rows := pterm.TableData{{"Operation", "Applied", "Skipped", "Failed"}}
	for _, kind := range []cleaner.OperationKind{
		cleaner.KindStreams,
		cleaner.KindTimestamps,
		cleaner.KindOfficeProperties,
		cleaner.KindOwner,
	} {
		counts, ok := report.Counts.PerKind[kind]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			kind.String(),
			fmt.Sprintf("%d", counts.Applied),
			fmt.Sprintf("%d", counts.Skipped),
			fmt.Sprintf("%d", counts.Failed),
		})
	}

	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	pterm.Println()

	if report.Counts.Failed > 0 {
		pterm.Warning.Printfln("%d of %d file(s) had failures", report.Counts.Failed, report.Counts.Files)
	} else {
		pterm.Success.Printfln("%d file(s) processed", report.Counts.Files)
	}
}

// RenderSnapshot prints the read-only metadata view used by the info mode.
func RenderSnapshot(snap *cleaner.Snapshot) {
	pterm.DefaultSection.Println(snap.Path)

	if snap.StreamsSupported {
		if len(snap.Streams) == 0 {
			pterm.Println("Named streams:   none")
		} else {
			pterm.Printfln("Named streams:   %d", len(snap.Streams))
			for _, s := range snap.Streams {
				pterm.Printfln("  %s (%d bytes)", s.Name, s.Size)
			}
		}
	} else {
		pterm.Println(pterm.Gray("Named streams:   not supported on this volume"))
	}

	pterm.Printfln("Created:         %s", formatTime(snap.Timestamps.Creation))
	pterm.Printfln("Modified:        %s", formatTime(snap.Timestamps.Write))
	pterm.Printfln("Accessed:        %s", formatTime(snap.Timestamps.Access))

	if snap.Owner != "" {
		pterm.Printfln("Owner:           %s", snap.Owner)
	}

	if snap.IsOfficeDocument {
		pterm.Println("Office document: yes")
		tags := make([]string, 0, len(snap.Properties))
		for tag := range snap.Properties {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			if snap.Properties[tag] == "" {
				continue
			}
			pterm.Printfln("  %-20s %s", tag, snap.Properties[tag])
		}
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.UTC().Format(time.RFC3339)
}
