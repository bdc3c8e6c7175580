package tx

import "time"

// Status is the lifecycle state of a simulated transaction.
type Status string

const (
	StatusPending   Status = "pending"   // created, awaiting signature
	StatusSubmitted Status = "submitted" // accepted by the (simulated) network
	StatusConfirmed Status = "confirmed" // mined, receipt available
	StatusFailed    Status = "failed"    // call errored
	StatusRejected  Status = "rejected"  // user declined the signature
)

// Type categorizes what a transaction does, for display purposes.
type Type string

const (
	TypeMilestone  Type = "milestone"
	TypeRelease    Type = "release"
	TypeDispute    Type = "dispute"
	TypeResolution Type = "resolution"
	TypeOther      Type = "other"
)

// Meta is the human-readable description attached to a transaction.
type Meta struct {
	Title           string
	Description     string
	Type            Type
	Value           string
	To              string
	ContractAddress string
}

// Receipt is the mock confirmation receipt. Status is always true for
// confirmed transactions; failures never reach the confirmed state.
type Receipt struct {
	TransactionHash   string
	BlockNumber       int64
	GasUsed           string
	EffectiveGasPrice string
	Status            bool
}

// Transaction is a simulated on-chain call. Records live in the simulator's
// registry for the duration of the session only.
type Transaction struct {
	ID        string
	Hash      string
	Status    Status
	Meta      Meta
	CreatedAt time.Time
	UpdatedAt time.Time
	Receipt   *Receipt
	Err       string
}

// Terminal reports whether the transaction reached a final state.
func (t Transaction) Terminal() bool {
	switch t.Status {
	case StatusConfirmed, StatusFailed, StatusRejected:
		return true
	}
	return false
}

// Callbacks are invoked as the transaction advances. At most one of
// OnConfirmed, OnFailed and OnRejected fires per transaction.
type Callbacks struct {
	OnSubmitted func(hash string)
	OnConfirmed func(receipt Receipt)
	OnFailed    func(err error)
	OnRejected  func()
}
