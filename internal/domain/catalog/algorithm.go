package catalog

import (
	"fmt"
	"strings"
)

// WalkStep is one visited algorithm step and the answer given there.
type WalkStep struct {
	AlgorithmStep
	Answer string `json:"answer,omitempty"`
}

// Walk is the path taken through a treatment algorithm.
type Walk struct {
	GuidelineID string     `json:"guidelineId"`
	AlgorithmID string     `json:"algorithmId"`
	Path        []WalkStep `json:"path"`
	// Complete is true when the walk reached a terminal step. Otherwise the
	// last step is a decision awaiting an answer.
	Complete bool `json:"complete"`
}

// Current returns the step the walk stopped at.
func (w Walk) Current() AlgorithmStep {
	return w.Path[len(w.Path)-1].AlgorithmStep
}

func parseAnswer(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true":
		return true, nil
	case "no", "n", "false":
		return false, nil
	}
	return false, fmt.Errorf("answer %q must be yes or no", s)
}

// WalkAlgorithm follows an algorithm from its first step. Each decision
// step consumes one answer. Other steps continue to their explicit next
// step. Without one, a step that a decision branches to ends the walk and
// any other step falls through to the following step. The walk also stops
// at a decision when the answers run out.
func (s *Store) WalkAlgorithm(guidelineID, algorithmID string, answers []string) (*Walk, error) {
	g, ok := s.current().guidelineByID[guidelineID]
	if !ok {
		return nil, fmt.Errorf("guideline %q: %w", guidelineID, ErrNotFound)
	}
	alg, ok := g.Algorithm(algorithmID)
	if !ok {
		return nil, fmt.Errorf("algorithm %q: %w", algorithmID, ErrNotFound)
	}
	return walk(g.ID, alg, answers)
}

func walk(guidelineID string, alg *Algorithm, answers []string) (*Walk, error) {
	w := &Walk{GuidelineID: guidelineID, AlgorithmID: alg.ID, Path: []WalkStep{}}
	if len(alg.Steps) == 0 {
		return nil, fmt.Errorf("algorithm %q has no steps", alg.ID)
	}
	pos := make(map[string]int, len(alg.Steps))
	leaves := make(map[string]bool)
	for i, st := range alg.Steps {
		pos[st.ID] = i
		if st.Yes != "" {
			leaves[st.Yes] = true
		}
		if st.No != "" {
			leaves[st.No] = true
		}
	}

	i, sinceDecision := 0, 0
	for {
		st := alg.Steps[i]
		if !st.IsDecision() {
			sinceDecision++
			if sinceDecision > len(alg.Steps) {
				return nil, fmt.Errorf("algorithm %q loops without a decision at step %q", alg.ID, st.ID)
			}
			w.Path = append(w.Path, WalkStep{AlgorithmStep: st})
			next := st.Next
			if next == "" {
				if leaves[st.ID] || i+1 >= len(alg.Steps) {
					w.Complete = true
					return w, nil
				}
				i++
				continue
			}
			j, ok := pos[next]
			if !ok {
				return nil, fmt.Errorf("step %q references unknown step %q", st.ID, next)
			}
			i = j
			continue
		}

		sinceDecision = 0
		if len(answers) == 0 {
			w.Path = append(w.Path, WalkStep{AlgorithmStep: st})
			return w, nil
		}
		yes, err := parseAnswer(answers[0])
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", st.ID, err)
		}
		answers = answers[1:]
		next, answer := st.No, "no"
		if yes {
			next, answer = st.Yes, "yes"
		}
		w.Path = append(w.Path, WalkStep{AlgorithmStep: st, Answer: answer})
		if next == "" {
			w.Complete = true
			return w, nil
		}
		j, ok := pos[next]
		if !ok {
			return nil, fmt.Errorf("step %q references unknown step %q", st.ID, next)
		}
		i = j
	}
}
