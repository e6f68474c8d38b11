package parser

import (
	"regexp"
	"strings"
)

var (
	leadingDate = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}`)
	anyDate     = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
	datePair    = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}\s+\d{2}\.\d{2}\.\d{4}`)
	digitsOnly  = regexp.MustCompile(`^\d+$`)
)

// lineClassifier holds the per-vendor rules that group raw lines into
// transaction blocks. Evaluation order for a line following a start line:
// empty, start, noise, clock, continuation.
type lineClassifier struct {
	// start matches a line that opens a transaction
	start *regexp.Regexp
	// noise lines are skipped outright and end a block
	noise []string
	// clock matches a time line; the first match in a block is kept
	clock *regexp.Regexp
	// lastClock keeps the last time line of a block instead of the first
	lastClock bool
	// clockText appends the last clock group to the description
	clockText bool
	// continuation reports whether a line extends the previous description
	continuation func(line string) bool
}

// block is one transaction worth of lines.
type block struct {
	groups    []string
	clock     []string
	fragments []string
}

func (c *lineClassifier) isNoise(line string) bool {
	return containsAny(line, c.noise)
}

// scanBlocks walks lines and returns one block per transaction start.
// Lines before the first start or between blocks that are neither noise nor
// a start are skipped one at a time.
func scanBlocks(lines []string, c *lineClassifier) []block {
	var blocks []block
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" || c.isNoise(line) {
			i++
			continue
		}

		m := c.start.FindStringSubmatch(line)
		if m == nil {
			i++
			continue
		}

		b := block{groups: m}
		j := i + 1
		for ; j < len(lines); j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" || c.start.MatchString(next) || c.isNoise(next) {
				break
			}
			if c.clock != nil {
				if cm := c.clock.FindStringSubmatch(next); cm != nil {
					if b.clock == nil || c.lastClock {
						b.clock = cm
					}
					if c.clockText {
						if text := strings.TrimSpace(cm[len(cm)-1]); text != "" {
							b.fragments = append(b.fragments, text)
						}
					}
					continue
				}
			}
			if c.continuation == nil || !c.continuation(next) {
				break
			}
			b.fragments = append(b.fragments, next)
		}

		blocks = append(blocks, b)
		i = j
	}
	return blocks
}

// description joins the lead text with continuation fragments and collapses
// whitespace.
func (b block) description(lead string) string {
	parts := append([]string{lead}, b.fragments...)
	return collapseSpaces(strings.Join(parts, " "))
}

// clockGroup returns group n of the kept clock line, or "".
func (b block) clockGroup(n int) string {
	if n < len(b.clock) {
		return b.clock[n]
	}
	return ""
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsAny(line string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(line, n) {
			return true
		}
	}
	return false
}
