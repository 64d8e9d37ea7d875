package blender

import "strings"

// maxCapturedBytes bounds each captured stream. Long renders print a line per
// tile, and only the tail matters for diagnosing a failure.
const maxCapturedBytes = 4 * 1024 * 1024

type tailBuffer struct {
	limit   int
	size    int
	lines   []string
	dropped int
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) WriteLine(line string) {
	b.lines = append(b.lines, line)
	b.size += len(line) + 1
	for b.size > b.limit && len(b.lines) > 1 {
		b.size -= len(b.lines[0]) + 1
		b.lines[0] = ""
		b.lines = b.lines[1:]
		b.dropped++
	}
}

func (b *tailBuffer) String() string {
	if len(b.lines) == 0 {
		return ""
	}
	var sb strings.Builder
	if b.dropped > 0 {
		sb.WriteString("[... output truncated ...]\n")
	}
	for _, line := range b.lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
