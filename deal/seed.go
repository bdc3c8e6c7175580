package deal

// DefaultSeed returns the demo milestone fixtures: conversation "1" starts
// with one completed, one active and one locked milestone.
func DefaultSeed() map[string][]Milestone {
	return map[string][]Milestone{
		"1": {
			{ID: "1", Title: "Design Mockups", Amount: "5.0", Status: StatusCompleted},
			{ID: "2", Title: "Frontend Implementation", Amount: "7.5", Status: StatusActive},
			{ID: "3", Title: "Backend Integration", Amount: "10.0", Status: StatusLocked},
		},
	}
}
