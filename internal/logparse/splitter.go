// Package logparse turns raw simulator log text into per-section particle
// collections.  It owns the section splitter, the line-level field
// extractors, and the section processor.
package logparse

import (
	"bufio"
	"io"
	"strings"

	"github.com/hydrolab/fishpass/internal/types"
)

// Scanner buffer sized for long simulator log lines.
const maxLineBytes = 1024 * 1024

// SplitSections splits log lines into delimiter-bounded sections.  A line
// containing the delimiter token anywhere closes the current section; the
// delimiter line itself belongs to no section.  An input with k delimiter
// lines always yields k+1 sections, so leading, trailing, and back-to-back
// delimiters produce empty sections.  Section indexes are 1-based.
func SplitSections(lines []string, delimiter string) []types.RawSection {
	var sections []types.RawSection
	var current []string

	for _, line := range lines {
		if strings.Contains(line, delimiter) {
			sections = append(sections, types.RawSection{
				Index: len(sections) + 1,
				Lines: current,
			})
			current = nil
			continue
		}
		current = append(current, line)
	}

	sections = append(sections, types.RawSection{
		Index: len(sections) + 1,
		Lines: current,
	})

	return sections
}

// ReadSections reads log text from r and splits it into sections.  The
// caller owns opening and closing the underlying file.
func ReadSections(r io.Reader, delimiter string) ([]types.RawSection, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return SplitSections(lines, delimiter), nil
}
