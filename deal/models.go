package deal

// Status is the lifecycle state of a milestone.
type Status string

const (
	StatusLocked    Status = "locked"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDisputed  Status = "disputed"
)

// Milestone is a unit of contracted work with an escrowed amount.
// Amount keeps the reference's fixed one-decimal string formatting.
// Arbiter and DisputeReason stay empty until a dispute is created.
type Milestone struct {
	ID            string
	Title         string
	Amount        string
	Status        Status
	Arbiter       string
	DisputeReason string
}
