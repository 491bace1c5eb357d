package strategy

import "sync"

type StateMachine struct {
	mu    sync.Mutex
	Stage Stage
}

func NewStateMachine() *StateMachine {
	return &StateMachine{Stage: StageCreated}
}

func (s *StateMachine) Apply(event Event) Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Stage = nextStage(s.Stage, event)
	return s.Stage
}

func (s *StateMachine) SetStage(stage Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Stage = stage
}

func nextStage(current Stage, event Event) Stage {
	switch current {
	case StageCreated:
		if event == EventInvestSubmitted {
			return StageInvestSubmitted
		}
	case StageInvestSubmitted:
		if event == EventHedgeSubmitted {
			return StageHedgeSubmitted
		}
	case StageHedgeSubmitted:
		if event == EventSettled {
			return StageSettled
		}
	case StageSettled:
		if event == EventUnwound {
			return StageUnwound
		}
	}
	return current
}
