package report

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ApplySummary is the parsed form of the fixed summary block an apply
// script prints as its last action. That block is the only channel by
// which outcomes of a scripted run are observed.
type ApplySummary struct {
	Databases   int
	Collections int
	Indexes     int
	ErrorCount  int
	Errors      []string
}

const (
	markerDatabases   = "Databases Created:"
	markerCollections = "Collections Created:"
	markerIndexes     = "Indexes Created:"
	markerErrors      = "Errors:"
	errorLinePrefix   = "  - "
)

// ParseApplySummary scans captured stdout for the summary markers. It
// returns an error when no summary block is present, which means the
// script never reached its final print (crash, disconnect).
func ParseApplySummary(stdout string) (*ApplySummary, error) {
	summary := &ApplySummary{}
	found := false

	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	inErrors := false
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, markerDatabases):
			summary.Databases = parseCount(line, markerDatabases)
			found = true
		case strings.HasPrefix(line, markerCollections):
			summary.Collections = parseCount(line, markerCollections)
			found = true
		case strings.HasPrefix(line, markerIndexes):
			summary.Indexes = parseCount(line, markerIndexes)
			found = true
		case strings.HasPrefix(line, markerErrors):
			summary.ErrorCount = parseCount(line, markerErrors)
			found = true
			inErrors = true
		case inErrors && strings.HasPrefix(line, errorLinePrefix):
			summary.Errors = append(summary.Errors, strings.TrimPrefix(line, errorLinePrefix))
		default:
			inErrors = false
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("no summary block found in script output")
	}
	return summary, nil
}

func parseCount(line, marker string) int {
	value := strings.TrimSpace(strings.TrimPrefix(line, marker))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

// String renders the summary for the operator.
func (s *ApplySummary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Databases Created: %d\n", s.Databases)
	fmt.Fprintf(&sb, "Collections Created: %d\n", s.Collections)
	fmt.Fprintf(&sb, "Indexes Created: %d\n", s.Indexes)
	fmt.Fprintf(&sb, "Errors: %d", s.ErrorCount)
	for _, e := range s.Errors {
		fmt.Fprintf(&sb, "\n  - %s", e)
	}
	return sb.String()
}
