package hierarchy

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ResetRecurring unchecks every completed recurring daily mission whose
// interval has elapsed since its last completion, counted in calendar days of
// the store's location. CompletionCount and LastCompletedAt are kept.
//
// It returns the number of items reset. The tree is saved only when that
// number is non-zero, so repeated passes on a settled tree write nothing.
func (s *Store) ResetRecurring(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := DateOf(s.now(), s.loc)

	reset := 0

	for pi := range s.projects {
		p := &s.projects[pi]

		for mi := range p.Missions {
			m := &p.Missions[mi]

			for di := range m.DailyMissions {
				d := &m.DailyMissions[di]

				if !due(d, today, s.loc) {
					continue
				}

				d.Completed = false
				reset++

				s.log.Debug("recurring daily mission reset",
					zap.String("project", p.ID),
					zap.String("mission", m.ID),
					zap.String("daily_mission", d.ID),
					zap.Int("interval", effectiveInterval(d)),
				)
			}
		}
	}

	if reset == 0 {
		return 0, nil
	}

	return reset, s.persist(ctx, "reset recurring")
}

// due reports whether d has to be unchecked on today.
func due(d *DailyMission, today Date, loc *time.Location) bool {
	if !d.Recurring || !d.Completed {
		return false
	}

	last := time.Unix(0, 0)
	if d.LastCompletedAt != nil {
		last = *d.LastCompletedAt
	}

	return today.DaysSince(DateOf(last, loc)) >= effectiveInterval(d)
}

// effectiveInterval treats a missing or non-positive interval as 1.
func effectiveInterval(d *DailyMission) int {
	if d.RecurringInterval < 1 {
		return 1
	}

	return d.RecurringInterval
}
