package domain

// QuestProgress is the progress counter of one quest.
// One-time quests set Completed; repeatable quests reset Progress and bump Completions instead.
type QuestProgress struct {
	QuestID     string    `json:"quest_id"`
	Kind        QuestKind `json:"kind"`
	Progress    int64     `json:"progress"`
	Completed   bool      `json:"completed"`
	Completions int       `json:"completions"`
}
