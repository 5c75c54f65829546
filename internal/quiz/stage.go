package quiz

// Stage is the quiz view state.
type Stage int

const (
	StageIdle Stage = iota
	StageAwaitingReauth
	StageInProgress
	StageDone
	StageError
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAwaitingReauth:
		return "awaiting-reauth"
	case StageInProgress:
		return "in-progress"
	case StageDone:
		return "done"
	case StageError:
		return "error"
	}
	return "unknown"
}

// Terminal reports whether the attempt is over.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageError
}
