package hierarchy_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/calvinalkan/missions/internal/blob"
	"github.com/calvinalkan/missions/internal/hierarchy"
)

// testClock is a manually advanced clock for store tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{now: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// sequentialIDs returns ids "id-1", "id-2", ...
func sequentialIDs() hierarchy.IDFunc {
	var (
		mu sync.Mutex
		n  int
	)

	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()

		n++

		return fmt.Sprintf("id-%d", n), nil
	}
}

var tokyo = mustLoadLocation("Asia/Tokyo")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 9*60*60)
	}

	return loc
}

type fixture struct {
	store *hierarchy.Store
	blobs *blob.Memory
	clock *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	blobs := blob.NewMemory()
	clock := newTestClock(time.Date(2026, 3, 10, 9, 30, 0, 0, tokyo))

	store, err := hierarchy.Open(t.Context(), hierarchy.Options{
		Blobs:    blobs,
		Location: tokyo,
		Now:      clock.Now,
		NewID:    sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	return &fixture{store: store, blobs: blobs, clock: clock}
}

// reopen loads a second store from the same blobs.
func (f *fixture) reopen(t *testing.T) *hierarchy.Store {
	t.Helper()

	store, err := hierarchy.Open(t.Context(), hierarchy.Options{
		Blobs:    f.blobs,
		Location: tokyo,
		Now:      f.clock.Now,
	})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}

	return store
}

func (f *fixture) mustProject(t *testing.T, title string) string {
	t.Helper()

	id, err := f.store.AddProject(t.Context(), title)
	if err != nil {
		t.Fatalf("AddProject(%q): %v", title, err)
	}

	return id
}

func (f *fixture) mustMission(t *testing.T, projectID, title string, target *hierarchy.Date) string {
	t.Helper()

	id, err := f.store.AddMission(t.Context(), projectID, title, target)
	if err != nil {
		t.Fatalf("AddMission(%q): %v", title, err)
	}

	return id
}

func (f *fixture) mustDaily(t *testing.T, projectID, missionID string, in hierarchy.NewDailyMission) string {
	t.Helper()

	id, err := f.store.AddDailyMission(t.Context(), projectID, missionID, in)
	if err != nil {
		t.Fatalf("AddDailyMission(%q): %v", in.Title, err)
	}

	return id
}

func (f *fixture) mustToggle(t *testing.T, projectID, missionID, dailyID string) {
	t.Helper()

	err := f.store.ToggleDailyMission(t.Context(), projectID, missionID, dailyID)
	if err != nil {
		t.Fatalf("ToggleDailyMission: %v", err)
	}
}

func (f *fixture) daily(t *testing.T, projectID, missionID, dailyID string) hierarchy.DailyMission {
	t.Helper()

	d, err := f.store.DailyMission(projectID, missionID, dailyID)
	if err != nil {
		t.Fatalf("DailyMission: %v", err)
	}

	return d
}

func datePtr(y int, m time.Month, d int) *hierarchy.Date {
	return &hierarchy.Date{Year: y, Month: m, Day: d}
}
