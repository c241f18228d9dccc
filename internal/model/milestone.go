package model

type Milestone struct {
	Title          string  `db:"title" json:"title"`
	Completed      bool    `db:"completed" json:"completed"`
	CompletionTime *Height `db:"completion_time" json:"completion_time,omitempty"`
}

// NewMilestones builds the initial, all-incomplete milestone list for a goal.
func NewMilestones(titles []string) []Milestone {
	milestones := make([]Milestone, 0, len(titles))
	for _, title := range titles {
		milestones = append(milestones, Milestone{Title: title})
	}
	return milestones
}
