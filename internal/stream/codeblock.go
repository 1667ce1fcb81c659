package stream

import "strings"

// CodeBlock is a fenced ```lang ... ``` region detected in plain
// output text.
type CodeBlock struct {
	Language     string
	Content      string
	StartingLine int
	CharCount    int
}

// codeBlockTracker scans plain text line by line for triple-backtick
// fences, accumulating the body of an open fence until its closing
// fence is seen.
type codeBlockTracker struct {
	line     int
	open     bool
	lang     string
	startAt  int
	buf      strings.Builder
	blocks   map[int]CodeBlock // keyed by StartingLine
}

func newCodeBlockTracker() *codeBlockTracker {
	return &codeBlockTracker{blocks: make(map[int]CodeBlock)}
}

// feedLine processes one complete line (no trailing newline) of plain
// text and returns a completed CodeBlock if this line closed one.
func (c *codeBlockTracker) feedLine(line string) (CodeBlock, bool) {
	trimmed := strings.TrimSpace(line)
	defer func() { c.line++ }()

	if !c.open {
		if strings.HasPrefix(trimmed, "```") {
			c.open = true
			c.lang = strings.TrimSpace(trimmed[3:])
			c.startAt = c.line
			c.buf.Reset()
		}
		return CodeBlock{}, false
	}

	if trimmed == "```" {
		c.open = false
		block := CodeBlock{
			Language:     c.lang,
			Content:      c.buf.String(),
			StartingLine: c.startAt,
			CharCount:    c.buf.Len(),
		}
		c.blocks[c.startAt] = block
		return block, true
	}

	if c.buf.Len() > 0 {
		c.buf.WriteByte('\n')
	}
	c.buf.WriteString(line)
	return CodeBlock{}, false
}

// Lookup returns a previously completed block by its starting line.
func (c *codeBlockTracker) Lookup(startingLine int) (CodeBlock, bool) {
	b, ok := c.blocks[startingLine]
	return b, ok
}
