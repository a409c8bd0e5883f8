package hierarchy

// ProjectProgress returns the share of completed daily missions across all
// missions of a project, in percent. A project without daily missions is at 0.
func (s *Store) ProjectProgress(projectID string) (float64, error) {
	t, err := s.ProjectTally(projectID)
	if err != nil {
		return 0, err
	}

	return t.Percent(), nil
}

// MissionProgress returns the share of completed daily missions of a
// mission, in percent. A mission without daily missions is at 0.
func (s *Store) MissionProgress(projectID, missionID string) (float64, error) {
	t, err := s.MissionTally(projectID, missionID)
	if err != nil {
		return 0, err
	}

	return t.Percent(), nil
}

// ProjectTally counts the daily missions of a project.
func (s *Store) ProjectTally(projectID string) (Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.findProject(projectID)
	if err != nil {
		return Tally{}, err
	}

	return p.tally(), nil
}

// MissionTally counts the daily missions of a mission.
func (s *Store) MissionTally(projectID, missionID string) (Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.findMission(projectID, missionID)
	if err != nil {
		return Tally{}, err
	}

	return m.tally(), nil
}

// OverallProgress counts the daily missions of every project.
func (s *Store) OverallProgress() Tally {
	s.mu.Lock()
	defer s.mu.Unlock()

	var t Tally

	for i := range s.projects {
		t = t.add(s.projects[i].tally())
	}

	return t
}
