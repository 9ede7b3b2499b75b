package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/ngrpv/untar/pkg/archive"
	"github.com/ngrpv/untar/pkg/filter"
)

// sortedNames lists the selected entries, deduplicated and sorted. An
// archive holding a name twice keeps only the later entry, mirroring the
// index used by Stat.
func sortedNames(ctx context.Context, a *archive.Archive, m *filter.Matcher) ([]string, error) {
	all, err := a.Names(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(all))
	names := make([]string, 0, len(all))
	for _, name := range all {
		if seen[name] || !m.Match(name) {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// printNames writes one entry name per line.
func printNames(ctx context.Context, a *archive.Archive, m *filter.Matcher, out io.Writer) error {
	names, err := sortedNames(ctx, a, m)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}

// printInfo writes the full metadata of every selected entry.
func printInfo(ctx context.Context, a *archive.Archive, m *filter.Matcher, out io.Writer) error {
	names, err := sortedNames(ctx, a, m)
	if err != nil {
		return err
	}
	for _, name := range names {
		hdr, err := a.Stat(ctx, name)
		if err != nil {
			return err
		}
		writeFields(out, hdr.Fields())
	}
	return nil
}

// writeFields renders labeled values with the labels right-aligned to the
// widest one, followed by a blank line.
func writeFields(out io.Writer, fields []archive.Field) {
	width := 0
	for _, f := range fields {
		if len(f.Label) > width {
			width = len(f.Label)
		}
	}
	for _, f := range fields {
		fmt.Fprintf(out, "%*s : %s\n", width, f.Label, f.Value)
	}
	fmt.Fprintln(out)
}
