// Package hierarchy owns the Project > Mission > DailyMission tree.
//
// A [Store] is the single source of truth for the tree. Every mutation is
// validated before it is applied, applied under one mutex, and then mirrored
// to a [BlobStore] as a full snapshot. A failed save never rolls back the
// in-memory change.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultKey is the blob key used when Options.Key is empty.
const DefaultKey = "taskHierarchy"

// maxIDAttempts bounds retries when a generated id is already taken.
const maxIDAttempts = 8

var errIDGenerationFailed = errors.New("no unique id after repeated attempts")

// BlobStore is the persistence collaborator. Load reports ok=false when
// nothing has been saved under key yet.
type BlobStore interface {
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
}

// Options configures [Open].
type Options struct {
	Blobs BlobStore
	// Key selects the persisted tree. Use one key per user to keep trees apart.
	Key string
	// Location defines calendar days for recurrence. Nil means time.Local.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to [NewID].
	NewID IDFunc
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Store holds the tree in memory. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	projects []Project

	blobs BlobStore
	key   string
	loc   *time.Location
	now   func() time.Time
	newID IDFunc
	log   *zap.Logger
}

// Open loads the tree stored under opts.Key. A missing blob yields an empty tree.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if ctx == nil {
		return nil, errors.New("open store: context is nil")
	}

	if opts.Blobs == nil {
		return nil, errors.New("open store: blob store is nil")
	}

	s := &Store{
		blobs: opts.Blobs,
		key:   opts.Key,
		loc:   opts.Location,
		now:   opts.Now,
		newID: opts.NewID,
		log:   opts.Logger,
	}

	if s.key == "" {
		s.key = DefaultKey
	}

	if s.loc == nil {
		s.loc = time.Local
	}

	if s.now == nil {
		s.now = time.Now
	}

	if s.newID == nil {
		s.newID = NewID
	}

	if s.log == nil {
		s.log = zap.NewNop()
	}

	data, ok, err := s.blobs.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: load %q: %w", ErrPersistence, s.key, err)
	}

	s.projects = []Project{}

	if ok {
		projects, decodeErr := Decode(data)
		if decodeErr != nil {
			return nil, fmt.Errorf("load %q: %w", s.key, decodeErr)
		}

		s.projects = projects
	}

	s.log.Debug("store opened",
		zap.String("key", s.key),
		zap.Int("projects", len(s.projects)),
	)

	return s, nil
}

// Location returns the zone that defines calendar days for this store.
func (s *Store) Location() *time.Location {
	return s.loc
}

// Projects returns a deep copy of the whole tree.
func (s *Store) Projects() []Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneProjects(s.projects)
}

// Project returns a copy of the project with the given id.
func (s *Store) Project(id string) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.findProject(id)
	if err != nil {
		return Project{}, err
	}

	return p.clone(), nil
}

// Mission returns a copy of a mission of a project.
func (s *Store) Mission(projectID, missionID string) (Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.findMission(projectID, missionID)
	if err != nil {
		return Mission{}, err
	}

	return m.clone(), nil
}

// DailyMission returns a copy of a daily mission.
func (s *Store) DailyMission(projectID, missionID, dailyID string) (DailyMission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.findDailyMission(projectID, missionID, dailyID)
	if err != nil {
		return DailyMission{}, err
	}

	return d.clone(), nil
}

// AddProject creates an empty project and returns its id.
func (s *Store) AddProject(ctx context.Context, title string) (string, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.mintID(func(id string) bool {
		_, findErr := s.findProject(id)
		return findErr == nil
	})
	if err != nil {
		return "", err
	}

	s.projects = append(s.projects, Project{
		ID:        id,
		Title:     title,
		CreatedAt: s.now(),
		Missions:  []Mission{},
	})

	return id, s.persist(ctx, "add project")
}

// UpdateProject applies patch to a project.
func (s *Store) UpdateProject(ctx context.Context, id string, patch ProjectPatch) error {
	title, err := cleanOptionalTitle(patch.Title)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.findProject(id)
	if err != nil {
		return err
	}

	if title != nil {
		p.Title = *title
	}

	return s.persist(ctx, "update project")
}

// DeleteProject removes a project with all its missions.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.projectIndex(id)
	if idx < 0 {
		return projectNotFound(id)
	}

	s.projects = slices.Delete(s.projects, idx, idx+1)

	return s.persist(ctx, "delete project")
}

// AddMission creates an empty mission under a project and returns its id.
// targetDate may be nil.
func (s *Store) AddMission(ctx context.Context, projectID, title string, targetDate *Date) (string, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.findProject(projectID)
	if err != nil {
		return "", err
	}

	id, err := s.mintID(func(id string) bool {
		return missionIndex(p, id) >= 0
	})
	if err != nil {
		return "", err
	}

	p.Missions = append(p.Missions, Mission{
		ID:            id,
		Title:         title,
		TargetDate:    cloneDate(targetDate),
		CreatedAt:     s.now(),
		DailyMissions: []DailyMission{},
	})

	return id, s.persist(ctx, "add mission")
}

// UpdateMission applies patch to a mission. A changed target date is copied
// to every daily mission of that mission.
func (s *Store) UpdateMission(ctx context.Context, projectID, missionID string, patch MissionPatch) error {
	title, err := cleanOptionalTitle(patch.Title)
	if err != nil {
		return err
	}

	if patch.ClearTargetDate && patch.TargetDate != nil {
		return fmt.Errorf("%w: cannot set and clear target date at once", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.findMission(projectID, missionID)
	if err != nil {
		return err
	}

	if title != nil {
		m.Title = *title
	}

	if patch.TargetDate != nil || patch.ClearTargetDate {
		next := cloneDate(patch.TargetDate)

		if !sameDate(m.TargetDate, next) {
			m.TargetDate = next

			for i := range m.DailyMissions {
				m.DailyMissions[i].TargetDate = cloneDate(next)
			}
		}
	}

	return s.persist(ctx, "update mission")
}

// DeleteMission removes a mission with all its daily missions.
func (s *Store) DeleteMission(ctx context.Context, projectID, missionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.findProject(projectID)
	if err != nil {
		return err
	}

	idx := missionIndex(p, missionID)
	if idx < 0 {
		return missionNotFound(missionID)
	}

	p.Missions = slices.Delete(p.Missions, idx, idx+1)

	return s.persist(ctx, "delete mission")
}

// AddDailyMission creates a daily mission that inherits the mission's target
// date and returns its id.
func (s *Store) AddDailyMission(ctx context.Context, projectID, missionID string, in NewDailyMission) (string, error) {
	title, err := cleanTitle(in.Title)
	if err != nil {
		return "", err
	}

	interval := in.RecurringInterval
	if interval == 0 {
		interval = 1
	}

	if interval < 1 {
		return "", errIntervalInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.findMission(projectID, missionID)
	if err != nil {
		return "", err
	}

	id, err := s.mintID(func(id string) bool {
		return dailyMissionIndex(m, id) >= 0
	})
	if err != nil {
		return "", err
	}

	m.DailyMissions = append(m.DailyMissions, DailyMission{
		ID:                id,
		Title:             title,
		TargetDate:        cloneDate(m.TargetDate),
		Recurring:         in.Recurring,
		RecurringInterval: interval,
		CreatedAt:         s.now(),
	})

	return id, s.persist(ctx, "add daily mission")
}

// UpdateDailyMission applies patch to a daily mission.
func (s *Store) UpdateDailyMission(ctx context.Context, projectID, missionID, dailyID string, patch DailyMissionPatch) error {
	title, err := cleanOptionalTitle(patch.Title)
	if err != nil {
		return err
	}

	if patch.RecurringInterval != nil && *patch.RecurringInterval < 1 {
		return errIntervalInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.findDailyMission(projectID, missionID, dailyID)
	if err != nil {
		return err
	}

	if title != nil {
		d.Title = *title
	}

	if patch.Recurring != nil {
		d.Recurring = *patch.Recurring
	}

	if patch.RecurringInterval != nil {
		d.RecurringInterval = *patch.RecurringInterval
	}

	return s.persist(ctx, "update daily mission")
}

// ToggleDailyMission flips the completed flag. Completing bumps
// CompletionCount and stamps LastCompletedAt; unchecking touches neither.
func (s *Store) ToggleDailyMission(ctx context.Context, projectID, missionID, dailyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.findDailyMission(projectID, missionID, dailyID)
	if err != nil {
		return err
	}

	if d.Completed {
		d.Completed = false
	} else {
		now := s.now()
		d.Completed = true
		d.CompletionCount++
		d.LastCompletedAt = &now
	}

	return s.persist(ctx, "toggle daily mission")
}

// DeleteDailyMission removes a daily mission.
func (s *Store) DeleteDailyMission(ctx context.Context, projectID, missionID, dailyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.findMission(projectID, missionID)
	if err != nil {
		return err
	}

	idx := dailyMissionIndex(m, dailyID)
	if idx < 0 {
		return dailyMissionNotFound(dailyID)
	}

	m.DailyMissions = slices.Delete(m.DailyMissions, idx, idx+1)

	return s.persist(ctx, "delete daily mission")
}

// persist mirrors the tree to the blob store. Caller must hold s.mu.
func (s *Store) persist(ctx context.Context, op string) error {
	data, err := Encode(s.projects)
	if err == nil {
		saveErr := s.blobs.Save(ctx, s.key, data)
		if saveErr != nil {
			err = fmt.Errorf("%w: save %q: %w", ErrPersistence, s.key, saveErr)
		}
	}

	if err != nil {
		s.log.Error("persist failed; in-memory state kept",
			zap.String("op", op),
			zap.String("key", s.key),
			zap.Error(err),
		)

		return err
	}

	return nil
}

func (s *Store) mintID(taken func(string) bool) (string, error) {
	for range maxIDAttempts {
		id, err := s.newID()
		if err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}

		if id != "" && !taken(id) {
			return id, nil
		}
	}

	return "", errIDGenerationFailed
}

func (s *Store) projectIndex(id string) int {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}

	return -1
}

func (s *Store) findProject(id string) (*Project, error) {
	idx := s.projectIndex(id)
	if idx < 0 {
		return nil, projectNotFound(id)
	}

	return &s.projects[idx], nil
}

func (s *Store) findMission(projectID, missionID string) (*Mission, error) {
	p, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}

	idx := missionIndex(p, missionID)
	if idx < 0 {
		return nil, missionNotFound(missionID)
	}

	return &p.Missions[idx], nil
}

func (s *Store) findDailyMission(projectID, missionID, dailyID string) (*DailyMission, error) {
	m, err := s.findMission(projectID, missionID)
	if err != nil {
		return nil, err
	}

	idx := dailyMissionIndex(m, dailyID)
	if idx < 0 {
		return nil, dailyMissionNotFound(dailyID)
	}

	return &m.DailyMissions[idx], nil
}

func missionIndex(p *Project, id string) int {
	for i := range p.Missions {
		if p.Missions[i].ID == id {
			return i
		}
	}

	return -1
}

func dailyMissionIndex(m *Mission, id string) int {
	for i := range m.DailyMissions {
		if m.DailyMissions[i].ID == id {
			return i
		}
	}

	return -1
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errTitleRequired
	}

	return title, nil
}

func cleanOptionalTitle(title *string) (*string, error) {
	if title == nil {
		return nil, nil
	}

	cleaned, err := cleanTitle(*title)
	if err != nil {
		return nil, err
	}

	return &cleaned, nil
}
