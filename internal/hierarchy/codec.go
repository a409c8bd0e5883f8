package hierarchy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode serializes the tree into the persisted JSON layout.
func Encode(projects []Project) ([]byte, error) {
	normalized := cloneProjects(projects)

	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrPersistence, err)
	}

	return data, nil
}

// Decode parses a persisted tree. Empty input decodes to an empty tree,
// null or missing collections become empty slices, and a targetDate of ""
// means no target date.
func Decode(data []byte) ([]Project, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Project{}, nil
	}

	var projects []Project

	err := json.Unmarshal(data, &projects)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrPersistence, err)
	}

	if projects == nil {
		projects = []Project{}
	}

	for i := range projects {
		p := &projects[i]
		if p.Missions == nil {
			p.Missions = []Mission{}
		}

		for j := range p.Missions {
			m := &p.Missions[j]
			dropZeroDate(&m.TargetDate)

			if m.DailyMissions == nil {
				m.DailyMissions = []DailyMission{}
			}

			for k := range m.DailyMissions {
				dropZeroDate(&m.DailyMissions[k].TargetDate)
			}
		}
	}

	return projects, nil
}
