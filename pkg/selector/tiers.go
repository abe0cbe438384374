package selector

import (
	"github.com/agentstation/curator/pkg/catalogs"
)

// multiSource selects every item with two or more sources. When there are
// at least target of them it keeps a random target-sized sample and
// reports true, ending the run.
func (s *state) multiSource() bool {
	var multi []catalogs.ItemID
	for _, id := range s.universe {
		if s.prov.Count(id) >= 2 {
			multi = append(multi, id)
		}
	}

	if len(multi) >= s.target {
		for _, id := range s.draw(multi, s.target) {
			s.add(id, ReasonMultiSource)
		}
		s.logger.Debug().
			Int("candidates", len(multi)).
			Int("selected", s.target).
			Msg("Multi-source items fill the target")
		return true
	}

	for _, id := range multi {
		s.add(id, ReasonMultiSource)
	}
	s.logger.Debug().Int("selected", len(multi)).Msg("Selected multi-source items")
	return false
}

// minPerSource backfills each source, in name order, up to the minimum.
func (s *state) minPerSource() {
	if s.min == 0 {
		return
	}
	for _, source := range s.sources {
		have := s.countSelected(source)
		if have >= s.min {
			continue
		}

		pool := s.pool(source)
		n := min(s.min-have, len(pool), s.remaining())
		for _, id := range s.draw(pool, n) {
			s.add(id, ReasonMinRequirement)
		}
		if have+n < s.min {
			s.shortfall(Shortfall{
				Kind:      ShortfallMinPerSource,
				Source:    source,
				Required:  s.min,
				Available: have + n,
			})
		}
	}
}

// proportional shares the remaining budget among sources by the size of
// their unselected pools. Pool sizes are fixed before the first draw while
// the budget each source sees shrinks as earlier sources are filled.
// Rounding leftovers fall through to fillToTarget.
func (s *state) proportional() {
	if s.remaining() <= 0 {
		return
	}

	sizes := make(map[catalogs.SourceName]int, len(s.sources))
	total := 0
	for _, source := range s.sources {
		n := len(s.pool(source))
		sizes[source] = n
		total += n
	}
	if total == 0 {
		return
	}

	for _, source := range s.sources {
		remaining := s.remaining()
		if remaining <= 0 {
			break
		}
		alloc := allocate(remaining, sizes[source], total)
		pool := s.pool(source)
		alloc = min(alloc, len(pool), remaining)
		for _, id := range s.draw(pool, alloc) {
			s.add(id, ReasonProportional)
		}
	}
}

// allocate returns remaining times the source's share of the pool, rounded
// down, plus one when the fractional part exceeds one half. The share is
// taken before scaling; the .5 boundary is sensitive to that order.
func allocate(remaining, size, total int) int {
	share := float64(size) / float64(total)
	x := float64(remaining) * share
	n := int(x)
	if x-float64(n) > 0.5 {
		n++
	}
	return n
}

// fillToTarget tops up from every unselected item.
func (s *state) fillToTarget() {
	need := s.remaining()
	if need <= 0 {
		return
	}
	var pool []catalogs.ItemID
	for _, id := range s.universe {
		if _, taken := s.selected[id]; !taken {
			pool = append(pool, id)
		}
	}
	for _, id := range s.draw(pool, need) {
		s.add(id, ReasonFillToTarget)
	}
}
