package domain

// LevelProgress is the level and exp pool of one progression axis.
// SubjectID is empty for account and battle pass progress and holds the character id otherwise.
type LevelProgress struct {
	Axis      LevelAxis `json:"axis"`
	SubjectID string    `json:"subject_id,omitempty"`
	Level     int       `json:"level"`
	Exp       int64     `json:"exp"`
}

// LevelKey identifies one LevelProgress within an account.
func LevelKey(axis LevelAxis, subjectID string) string {
	if subjectID == "" {
		return string(axis)
	}
	return string(axis) + "/" + subjectID
}

// Key returns the LevelKey of p.
func (p LevelProgress) Key() string {
	return LevelKey(p.Axis, p.SubjectID)
}

// StartingLevel is the level a freshly provisioned progression starts at.
func StartingLevel(axis LevelAxis) int {
	if axis == AxisBattlePass {
		return 0
	}
	return 1
}

// NewLevelProgress returns the provisioning default for axis and subject.
func NewLevelProgress(axis LevelAxis, subjectID string) LevelProgress {
	return LevelProgress{Axis: axis, SubjectID: subjectID, Level: StartingLevel(axis)}
}

// BattlePassProgress tracks the battle pass level and which rewards were claimed.
type BattlePassProgress struct {
	Progress LevelProgress `json:"progress"`
	Premium  bool          `json:"premium"`
	Claimed  ClaimedSet    `json:"claimed"`
}

// NewBattlePassProgress returns the provisioning default with a claimed set bounded to rewards slots.
func NewBattlePassProgress(rewards int) BattlePassProgress {
	return BattlePassProgress{
		Progress: NewLevelProgress(AxisBattlePass, ""),
		Claimed:  NewBoundedClaimedSet(rewards),
	}
}

// Clone returns an independent copy.
func (b BattlePassProgress) Clone() BattlePassProgress {
	b.Claimed = b.Claimed.Clone()
	return b
}
