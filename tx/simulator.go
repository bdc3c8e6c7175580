// Package tx simulates LUKSO blockchain transactions: every contract call
// goes through a staged pending -> submitted -> confirmed lifecycle with
// artificial latency, or terminates as failed/rejected when the call errors.
package tx

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"flowhub/notify"
)

// Default delays mirror the reference timings: ~1.5s for the signed call,
// 3s until the network "confirms".
const (
	DefaultCallDelay    = 1500 * time.Millisecond
	DefaultConfirmDelay = 3 * time.Second
)

// rejectionMarkers classify an error as a user rejection rather than a
// call failure.
var rejectionMarkers = []string{"rejected", "denied", "cancelled"}

// IsRejection reports whether err carries one of the user-cancellation
// markers.
func IsRejection(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range rejectionMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Action is the unit of work standing in for the contract call. It returns
// the transaction hash, or an empty string to let the simulator mint one.
type Action func(ctx context.Context) (string, error)

// Simulator owns the per-session transaction registry. Create one at
// application start and Reset it at session end; there is no process-wide
// registry.
type Simulator struct {
	mu  sync.Mutex
	txs map[string]*Transaction

	confirmDelay time.Duration
	notifier     notify.Notifier
	idGenerator  func() string
	now          func() time.Time
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithConfirmDelay overrides the simulated confirmation delay.
func WithConfirmDelay(d time.Duration) Option {
	return func(s *Simulator) { s.confirmDelay = d }
}

// WithIDGenerator overrides transaction ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Simulator) { s.idGenerator = gen }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// NewSimulator builds a Simulator. A nil notifier drops notifications.
func NewSimulator(notifier notify.Notifier, opts ...Option) *Simulator {
	s := &Simulator{
		txs:          make(map[string]*Transaction),
		confirmDelay: DefaultConfirmDelay,
		notifier:     notifier,
		idGenerator:  func() string { return "tx_" + uuid.NewString() },
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs the action as a simulated transaction. It registers a pending
// record, executes the action, advances through submitted and confirmed on
// success, and classifies errors as rejected or failed. The returned error
// is the action's error unchanged, so callers can inspect it; the simulator
// never retries.
func (s *Simulator) Submit(ctx context.Context, action Action, meta Meta, cb Callbacks) (string, error) {
	txID := s.idGenerator()
	now := s.now()
	s.put(&Transaction{
		ID:        txID,
		Status:    StatusPending,
		Meta:      meta,
		CreatedAt: now,
		UpdatedAt: now,
	})

	s.notify(meta.Title, meta.Description+" (Awaiting signature)", notify.LevelInfo)

	hash, err := action(ctx)
	if err != nil {
		rejected := IsRejection(err)
		s.update(txID, func(t *Transaction) {
			if rejected {
				t.Status = StatusRejected
			} else {
				t.Status = StatusFailed
			}
			t.Err = err.Error()
		})
		if rejected {
			s.notify("Transaction Rejected", "You rejected the transaction signature", notify.LevelDestructive)
			if cb.OnRejected != nil {
				cb.OnRejected()
			}
		} else {
			s.notify("Transaction Failed", "Error: "+truncate(err.Error(), 100), notify.LevelDestructive)
			if cb.OnFailed != nil {
				cb.OnFailed(err)
			}
		}
		return txID, err
	}

	if hash == "" {
		hash = s.mockHash(txID)
	}
	s.update(txID, func(t *Transaction) {
		t.Hash = hash
		t.Status = StatusSubmitted
	})
	s.notify(meta.Title, meta.Description+" (Submitted)", notify.LevelInfo)
	if cb.OnSubmitted != nil {
		cb.OnSubmitted(hash)
	}

	select {
	case <-ctx.Done():
		err := ctx.Err()
		s.update(txID, func(t *Transaction) {
			t.Status = StatusFailed
			t.Err = err.Error()
		})
		s.notify("Confirmation Failed", "Error: "+err.Error(), notify.LevelDestructive)
		if cb.OnFailed != nil {
			cb.OnFailed(err)
		}
		return txID, err
	case <-time.After(s.confirmDelay):
	}

	receipt := Receipt{
		TransactionHash:   hash,
		BlockNumber:       15_000_000 + rand.Int63n(1_000_000),
		GasUsed:           strconv.FormatInt(50_000+rand.Int63n(100_000), 10),
		EffectiveGasPrice: strconv.FormatInt(10+rand.Int63n(100), 10),
		Status:            true,
	}
	s.update(txID, func(t *Transaction) {
		t.Status = StatusConfirmed
		t.Receipt = &receipt
	})
	s.notify("Transaction Confirmed", meta.Description+" has been confirmed", notify.LevelInfo)
	if cb.OnConfirmed != nil {
		cb.OnConfirmed(receipt)
	}

	return txID, nil
}

// SimulatedCall returns a canned action that waits for delay and succeeds,
// standing in for a real contract method. The simulator mints the hash.
func SimulatedCall(delay time.Duration) Action {
	return func(ctx context.Context) (string, error) {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("tx: simulated call: %w", ctx.Err())
		case <-time.After(delay):
		}
		return "", nil
	}
}

// Get returns a copy of the transaction with the given ID.
func (s *Simulator) Get(txID string) (Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[txID]
	if !ok {
		return Transaction{}, false
	}
	return *t, true
}

// Pending returns non-terminal transactions, most recently updated first.
func (s *Simulator) Pending() []Transaction {
	return s.snapshot(func(t Transaction) bool { return !t.Terminal() })
}

// All returns every transaction of the session, most recently updated first.
func (s *Simulator) All() []Transaction {
	return s.snapshot(func(Transaction) bool { return true })
}

// Reset clears the registry. Call it when the session ends.
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = make(map[string]*Transaction)
}

func (s *Simulator) snapshot(keep func(Transaction) bool) []Transaction {
	s.mu.Lock()
	out := make([]Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if keep(*t) {
			out = append(out, *t)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func (s *Simulator) put(t *Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[t.ID] = t
}

func (s *Simulator) update(txID string, fn func(*Transaction)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[txID]
	if !ok {
		return
	}
	fn(t)
	t.UpdatedAt = s.now()
}

func (s *Simulator) notify(title, description string, level notify.Level) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(notify.Notification{Title: title, Description: description, Level: level})
}

// mockHash derives a deterministic-looking 0x hash from the transaction ID,
// Keccak-256 like a real LUKSO hash.
func (s *Simulator) mockHash(txID string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(txID))
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(s.now().UnixNano()))
	h.Write(ts[:])
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

func truncate(msg string, n int) string {
	if len(msg) <= n {
		return msg
	}
	return msg[:n]
}
