// Package metrics accumulates per-engine-instance tick and rule-hit
// counters and renders them as human-readable summaries, the verbose
// reporting surface SPEC_FULL.md §B assigns to
// github.com/dustin/go-humanize (the teacher pulls the same module in
// transitively but never calls it directly; this package gives it a
// concrete, exercised home rather than leaving it a dangling
// dependency).
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Collector tracks one engine instance's running counters across
// ticks: total ticks run, rules hit per sub-rule-set (by registration
// index, which Histogram renders), and ticks where a sub-rule-set
// matched nothing.
type Collector struct {
	mu sync.Mutex

	Ticks      int
	RuleHits   map[int]int // sub-rule-set index -> cumulative hit count
	NoMatch    int         // ticks where a sub-rule-set matched no rule
	started    time.Time
	lastTickAt time.Time
}

// New builds an empty Collector, stamping its start time for the
// elapsed-time line in Summary.
func New() *Collector {
	return &Collector{RuleHits: map[int]int{}, started: nowFunc()}
}

// nowFunc is indirected so tests can pin wall-clock behavior rather
// than depend on real elapsed time; production code always takes the
// default.
var nowFunc = time.Now

// RecordTick registers one completed Tick: atoms holds the winning
// atom index per sub-rule-set in registration order, or -1 where
// nothing matched.
func (c *Collector) RecordTick(atoms []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Ticks++
	c.lastTickAt = nowFunc()
	for idx, atom := range atoms {
		if atom < 0 {
			c.NoMatch++
			continue
		}
		c.RuleHits[idx]++
	}
}

// Summary renders a one-line, humanize-formatted report of cumulative
// activity, the line Engine hosts print under --verbose (SPEC_FULL.md
// §A), e.g. "1,024 ticks, 3,071 rule hits across 2 sub-rule-set(s),
// 12 no-match ticks, running for 3 seconds".
func (c *Collector) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, n := range c.RuleHits {
		total += n
	}
	elapsed := c.lastTickAt.Sub(c.started)
	if c.Ticks == 0 {
		elapsed = 0
	}
	return fmt.Sprintf(
		"%s ticks, %s rule hits across %s sub-rule-set(s), %s no-match ticks, running for %s",
		humanize.Comma(int64(c.Ticks)),
		humanize.Comma(int64(total)),
		humanize.Comma(int64(len(c.RuleHits))),
		humanize.Comma(int64(c.NoMatch)),
		humanize.RelTime(c.started, c.started.Add(elapsed), "", ""),
	)
}

// Histogram renders each sub-rule-set's cumulative hit count, sorted by
// index, one entry per line — the rule-hit histogram SPEC_FULL.md §A
// names alongside the humanize-formatted summary.
func (c *Collector) Histogram() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	idxs := make([]int, 0, len(c.RuleHits))
	for idx := range c.RuleHits {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)

	var b strings.Builder
	for _, idx := range idxs {
		fmt.Fprintf(&b, "sub-rule-set %d: %s hit(s)\n", idx, humanize.Comma(int64(c.RuleHits[idx])))
	}
	return b.String()
}
