package main

import (
	"fmt"

	"spectrolog/internal/recorder"
)

// summaryLines renders the end-of-run accounting. A nonzero discard count
// after a session means row writes were outrunning the serial buffer and
// input bytes were lost.
func summaryLines(s recorder.Summary) []string {
	return []string{
		fmt.Sprintf("rows_written: %d", s.Rows),
		fmt.Sprintf("sentences_decoded: %d", s.Sentences),
		fmt.Sprintf("bad_checksums: %d", s.BadChecksum),
		fmt.Sprintf("bytes_discarded: %d", s.Discarded),
	}
}

func printSummary(s recorder.Summary) {
	for _, line := range summaryLines(s) {
		fmt.Println(line)
	}
}
