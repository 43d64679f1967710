// Package plan builds pagination plans over backend-reported time
// partitions: fixed-size logical pages whose slices never cross a
// partition boundary.
package plan

import (
	"sort"

	"logsearch/internal/domain"
)

// lookAhead is how many logical pages past the current page a rebuild
// materializes. The plan is never built for the entire range up front.
const lookAhead = 10

// rebuildSlack is the materialized-page margin below which a Rebuild call
// actually recomputes the plan instead of returning the memoized one.
const rebuildSlack = 3

// Planner converts a sorted partition list plus per-partition record
// totals into logical pages of exactly rowsPerPage records, except
// possibly the final page of the range. Totals start unknown and are set
// exactly once as exact-count fetches return.
type Planner struct {
	rowsPerPage int
	partitions  []domain.Partition
	totals      []int64
	pages       []domain.LogicalPage
	dirty       bool
}

// New creates a Planner with the given logical page size.
func New(rowsPerPage int) *Planner {
	if rowsPerPage <= 0 {
		rowsPerPage = 250
	}
	return &Planner{rowsPerPage: rowsPerPage}
}

// RowsPerPage returns the configured logical page size.
func (p *Planner) RowsPerPage() int { return p.rowsPerPage }

// Reset replaces the partition list and discards all known totals and
// materialized pages. Partitions are sorted ascending by start time.
func (p *Planner) Reset(partitions []domain.Partition) {
	p.partitions = make([]domain.Partition, len(partitions))
	copy(p.partitions, partitions)
	sort.Slice(p.partitions, func(i, j int) bool {
		return p.partitions[i].Start < p.partitions[j].Start
	})
	p.totals = make([]int64, len(p.partitions))
	for i := range p.totals {
		p.totals[i] = domain.TotalUnknown
	}
	p.pages = nil
	p.dirty = true
}

// Partitions returns the sorted partition list.
func (p *Planner) Partitions() []domain.Partition { return p.partitions }

// Total returns the known record count for partition i, or
// domain.TotalUnknown.
func (p *Planner) Total(i int) int64 {
	if i < 0 || i >= len(p.totals) {
		return domain.TotalUnknown
	}
	return p.totals[i]
}

// SetTotal records the exact count for partition i. Totals are set exactly
// once: a second call for the same partition is ignored. Returns true when
// the total was stored, which obliges the caller to Rebuild.
func (p *Planner) SetTotal(i int, total int64) bool {
	if i < 0 || i >= len(p.totals) || total < 0 {
		return false
	}
	if p.totals[i] != domain.TotalUnknown {
		return false
	}
	p.totals[i] = total
	p.dirty = true
	return true
}

// KnownTotal sums all known partition totals; unknown partitions count as
// zero until their exact-count fetch returns.
func (p *Planner) KnownTotal() int64 {
	var n int64
	for _, t := range p.totals {
		if t > 0 {
			n += t
		}
	}
	return n
}

// Rebuild materializes logical pages far enough ahead of currentPage
// (1-based). When no totals changed since the last build and the plan
// already extends past currentPage plus a slack margin, the memoized plan
// is kept as-is to limit recomputation.
func (p *Planner) Rebuild(currentPage int) {
	if currentPage < 1 {
		currentPage = 1
	}
	if !p.dirty && len(p.pages) > currentPage+rebuildSlack {
		return
	}

	p.pages = nil
	open := domain.LogicalPage{}
	remaining := p.rowsPerPage
	cutoff := currentPage + lookAhead

walk:
	for i, part := range p.partitions {
		total := p.totals[i]
		if total == 0 {
			continue
		}
		if total == domain.TotalUnknown {
			// One provisional full-size slice; re-split on the next
			// rebuild once the exact count is known.
			open = append(open, domain.PageSlice{
				Partition:      part,
				PartitionIndex: i,
				From:           0,
				Size:           p.rowsPerPage,
			})
			p.pages = append(p.pages, open)
			open = domain.LogicalPage{}
			remaining = p.rowsPerPage
			if len(p.pages) > cutoff {
				break walk
			}
			continue
		}

		from := 0
		for from < int(total) {
			size := remaining
			if left := int(total) - from; left < size {
				size = left
			}
			open = append(open, domain.PageSlice{
				Partition:      part,
				PartitionIndex: i,
				From:           from,
				Size:           size,
			})
			from += size
			remaining -= size
			if remaining == 0 {
				p.pages = append(p.pages, open)
				open = domain.LogicalPage{}
				remaining = p.rowsPerPage
				if len(p.pages) > cutoff {
					break walk
				}
			}
		}
	}

	if len(open) > 0 && len(p.pages) <= cutoff {
		p.pages = append(p.pages, open)
	}
	p.dirty = false
}

// Page returns the slices of logical page n (1-based). A page beyond the
// materialized plan returns ok=false: the caller treats that as "no data
// for this page", not as an error.
func (p *Planner) Page(n int) (domain.LogicalPage, bool) {
	if n < 1 || n > len(p.pages) {
		return nil, false
	}
	return p.pages[n-1], true
}

// PageCount returns the number of materialized logical pages.
func (p *Planner) PageCount() int { return len(p.pages) }

// Pages returns all materialized logical pages.
func (p *Planner) Pages() []domain.LogicalPage { return p.pages }
