package research

import "fmt"

// RotationState persists the index of the last topic used so scheduled runs
// cycle through the configured list instead of repeating the first slot.
type RotationState interface {
	LastTopicIndex() (int, error)
	SetLastTopicIndex(i int) error
}

// Rotation walks a fixed list of topic slots round-robin, skipping empty
// slots, with the cursor persisted between runs.
type Rotation struct {
	topics []string
	state  RotationState
}

// NewRotation builds a rotation over the given slots.
func NewRotation(topics []string, state RotationState) *Rotation {
	return &Rotation{topics: topics, state: state}
}

// Next returns the next non-empty topic after the persisted cursor and
// advances the cursor. It fails when every slot is empty.
func (r *Rotation) Next() (string, error) {
	if len(r.topics) == 0 {
		return "", fmt.Errorf("no topics configured")
	}

	last, err := r.state.LastTopicIndex()
	if err != nil {
		return "", fmt.Errorf("failed to load topic cursor: %w", err)
	}

	for step := 1; step <= len(r.topics); step++ {
		i := (last + step) % len(r.topics)
		if r.topics[i] == "" {
			continue
		}
		if err := r.state.SetLastTopicIndex(i); err != nil {
			return "", fmt.Errorf("failed to save topic cursor: %w", err)
		}
		return r.topics[i], nil
	}

	return "", fmt.Errorf("all %d topic slots are empty", len(r.topics))
}

// Topics returns the configured slots in order, empty slots included.
func (r *Rotation) Topics() []string {
	out := make([]string, len(r.topics))
	copy(out, r.topics)
	return out
}
