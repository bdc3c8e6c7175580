package chat

// Message senders. A sender is either the local participant, the
// counterparty's address, or the literal system marker.
const (
	SenderMe     = "me"
	SenderSystem = "system"
)

// Conversation status labels set by the milestone lifecycle hooks. The
// field stays free text (callers may write anything), but these constants
// keep the labels the core itself writes consistent.
const (
	StatusLabelInProgress         = "In Progress"
	StatusLabelContractSigned     = "Contract Signed"
	StatusLabelMilestoneCompleted = "Milestone Completed"
	StatusLabelMilestonePaid      = "Milestone Paid ✅"
	StatusLabelInDispute          = "In Dispute"
)

// Chat is one conversation with a counterparty.
type Chat struct {
	ID              string
	Name            string
	Address         string
	LastMessage     string
	LastMessageTime string
	Status          string
	Unread          bool
	ProfileImage    string
}

// Message is one entry of a conversation's append-only log. Timestamp is a
// display string, matching the reference model.
type Message struct {
	ID        string
	Content   string
	Sender    string
	Timestamp string
}
