package hierarchy

import "time"

// Project is the top level of the hierarchy. It owns its missions.
type Project struct {
	ID        string    `json:"id"        yaml:"id"`
	Title     string    `json:"title"     yaml:"title"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Missions  []Mission `json:"missions"  yaml:"missions"`
}

// Mission groups daily missions under a project.
type Mission struct {
	ID            string         `json:"id"            yaml:"id"`
	Title         string         `json:"title"         yaml:"title"`
	TargetDate    *Date          `json:"targetDate"    yaml:"targetDate"`
	CreatedAt     time.Time      `json:"createdAt"     yaml:"createdAt"`
	DailyMissions []DailyMission `json:"dailyMissions" yaml:"dailyMissions"`
}

// DailyMission is a checkable item. Recurring items are reset by
// [Store.ResetRecurring] once RecurringInterval days have passed since the
// last completion.
type DailyMission struct {
	ID    string `json:"id"    yaml:"id"`
	Title string `json:"title" yaml:"title"`

	// TargetDate mirrors the parent mission's target date.
	TargetDate *Date `json:"targetDate" yaml:"targetDate"`

	Completed         bool `json:"completed"         yaml:"completed"`
	Recurring         bool `json:"recurring"         yaml:"recurring"`
	RecurringInterval int  `json:"recurringInterval" yaml:"recurringInterval"`

	// CompletionCount and LastCompletedAt are history: they only move on a
	// false->true toggle and survive unchecks and resets.
	CompletionCount int        `json:"completionCount" yaml:"completionCount"`
	LastCompletedAt *time.Time `json:"lastCompletedAt" yaml:"lastCompletedAt"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// ProjectPatch lists the editable fields of a project. Nil fields are left
// unchanged.
type ProjectPatch struct {
	Title *string
}

// MissionPatch lists the editable fields of a mission. Setting TargetDate or
// ClearTargetDate to a value different from the current one propagates the
// new date to every daily mission of the mission.
type MissionPatch struct {
	Title           *string
	TargetDate      *Date
	ClearTargetDate bool
}

// DailyMissionPatch lists the editable fields of a daily mission.
// Completion state is changed only through [Store.ToggleDailyMission].
type DailyMissionPatch struct {
	Title             *string
	Recurring         *bool
	RecurringInterval *int
}

// NewDailyMission holds the inputs of [Store.AddDailyMission].
// A zero RecurringInterval defaults to 1.
type NewDailyMission struct {
	Title             string
	Recurring         bool
	RecurringInterval int
}

// Tally counts completed and total daily missions.
type Tally struct {
	Completed int
	Total     int
}

// Percent returns 100*Completed/Total, or 0 when Total is 0.
func (t Tally) Percent() float64 {
	if t.Total == 0 {
		return 0
	}

	return 100 * float64(t.Completed) / float64(t.Total)
}

func (t Tally) add(o Tally) Tally {
	return Tally{Completed: t.Completed + o.Completed, Total: t.Total + o.Total}
}

func (m *Mission) tally() Tally {
	var t Tally

	for i := range m.DailyMissions {
		t.Total++

		if m.DailyMissions[i].Completed {
			t.Completed++
		}
	}

	return t
}

func (p *Project) tally() Tally {
	var t Tally

	for i := range p.Missions {
		t = t.add(p.Missions[i].tally())
	}

	return t
}

func (p *Project) clone() Project {
	c := *p

	c.Missions = make([]Mission, len(p.Missions))
	for i := range p.Missions {
		c.Missions[i] = p.Missions[i].clone()
	}

	return c
}

func (m *Mission) clone() Mission {
	c := *m
	c.TargetDate = cloneDate(m.TargetDate)

	c.DailyMissions = make([]DailyMission, len(m.DailyMissions))
	for i := range m.DailyMissions {
		c.DailyMissions[i] = m.DailyMissions[i].clone()
	}

	return c
}

func (d *DailyMission) clone() DailyMission {
	c := *d
	c.TargetDate = cloneDate(d.TargetDate)

	if d.LastCompletedAt != nil {
		at := *d.LastCompletedAt
		c.LastCompletedAt = &at
	}

	return c
}

func cloneProjects(projects []Project) []Project {
	out := make([]Project, len(projects))
	for i := range projects {
		out[i] = projects[i].clone()
	}

	return out
}
