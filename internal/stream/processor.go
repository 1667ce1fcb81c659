// Package stream turns the raw byte stream from a PTY into the
// structures the rest of cohort renders and reasons about: styled
// text runs, a live status line, detected code blocks, and throughput
// metrics.
package stream

import "strings"

// FeedResult is everything a single Feed call produced.
type FeedResult struct {
	Runs          []Run
	Status        string
	StatusChanged bool
	NewBlocks     []CodeBlock
	Metrics       Metrics
}

// Processor holds all per-session state the stream pipeline needs
// across chunks: the carried-over tail of a split escape sequence, the
// current SGR style, the line buffer code-block detection needs, the
// status history, and throughput metrics.
type Processor struct {
	carry []byte
	style Style

	lineBuf strings.Builder

	status  *statusTracker
	blocks  *codeBlockTracker
	metrics *metricsTracker
}

// NewProcessor returns a Processor ready to consume the first chunk of
// a freshly started command.
func NewProcessor() *Processor {
	return &Processor{
		status:  newStatusTracker(),
		blocks:  newCodeBlockTracker(),
		metrics: newMetricsTracker(),
	}
}

// ResetCycle re-arms status history and metrics for a new command,
// without touching the accumulated SGR style (colors persist across
// command boundaries the way a real terminal's would).
func (p *Processor) ResetCycle() {
	p.status.reset()
	p.metrics.reset()
}

// Feed consumes one chunk of raw PTY bytes and returns the runs,
// status update, newly completed code blocks, and metrics snapshot it
// produced. Feed is not safe for concurrent use; callers serialize
// access to a Processor (session.Session calls it from the PTY reader
// goroutine while holding its own mutex).
func (p *Processor) Feed(data []byte) FeedResult {
	p.metrics.record(len(data))

	combined := data
	if len(p.carry) > 0 {
		combined = make([]byte, 0, len(p.carry)+len(data))
		combined = append(combined, p.carry...)
		combined = append(combined, data...)
	}

	toks, partial := tokenize(combined)
	if partial > 0 {
		p.carry = append([]byte(nil), combined[len(combined)-partial:]...)
	} else {
		p.carry = nil
	}

	var runs []Run
	var plain strings.Builder

	flush := func(text string) {
		if text == "" {
			return
		}
		runs = append(runs, Run{Text: text, Style: p.style})
	}

	for _, t := range toks {
		switch t.kind {
		case tokText:
			flush(string(t.text))
			plain.Write(t.text)
		case tokCSI:
			if isBlacklisted(t.params, t.final) {
				continue
			}
			if t.final == 'm' {
				applySGR(&p.style, parseSGRParams(t.params))
			}
			// Non-SGR CSI (cursor movement, erase-line, ...) carries no
			// text and there's no cursor model to apply it to.
		case tokOSC, tokEscOther:
			// title-setting and other non-visible escapes carry no text.
		}
	}

	status, changed := p.status.feed(plain.String())

	var newBlocks []CodeBlock
	p.lineBuf.WriteString(plain.String())
	for {
		buf := p.lineBuf.String()
		idx := strings.IndexByte(buf, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSuffix(buf[:idx], "\r")
		if block, ok := p.blocks.feedLine(line); ok {
			newBlocks = append(newBlocks, block)
		}
		p.lineBuf.Reset()
		p.lineBuf.WriteString(buf[idx+1:])
	}

	return FeedResult{
		Runs:          runs,
		Status:        status,
		StatusChanged: changed,
		NewBlocks:     newBlocks,
		Metrics:       p.metrics.Snapshot(),
	}
}

// Metrics returns a snapshot of the current command cycle's throughput
// metrics without feeding any new data, used to render a completion
// marker after the last chunk has already been processed.
func (p *Processor) Metrics() Metrics { return p.metrics.Snapshot() }

// StepCount reports the number of distinct statuses seen in the
// current command cycle.
func (p *Processor) StepCount() int { return p.status.StepCount() }

// StatusHistory returns the bounded, deduplicated status history for
// the current command cycle, oldest first.
func (p *Processor) StatusHistory() []string { return p.status.History() }
