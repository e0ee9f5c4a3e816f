// Package sale is the lifecycle controller: it ties the ledger's bookkeeping
// to custody movement and persistence, one atomic unit of work per operation.
//
// Every operation follows the same shape: admission checks, snapshot, ledger
// mutation, outbound custody transfer(s), commit. A custody or commit failure
// restores the snapshot, so no partial effect is ever observable or
// persisted. A non-reentrant lock serializes operations; a call arriving
// while another is in flight fails with ErrOperationInProgress instead of
// observing half-updated state.
package sale

import (
	"sort"
	"sync"
	"time"

	"github.com/openraise/libraise-go/config"
	"github.com/openraise/libraise-go/custody"
	"github.com/openraise/libraise-go/ledger"
)

// Persister is the durable-commit surface the sale needs. store.LedgerStore
// satisfies it.
type Persister interface {
	Commit(global ledger.GlobalState, holders []*ledger.Holder, rounds []ledger.Round) error
}

// Sale is one fundraising sale: the ledger book, its terms, and the two
// custody gateways (principal asset in, payout asset out; they may be the
// same gateway when the assets coincide).
type Sale struct {
	mu sync.Mutex

	Book  *ledger.Book
	Terms config.Terms

	Principal custody.Gateway
	Payout    custody.Gateway

	// Persist is optional; nil means in-memory only.
	Persist Persister

	// Now is the clock, swappable in tests. Nil means time.Now.
	Now func() time.Time
}

// NewSale creates a sale with a fresh book derived from terms.
func NewSale(terms config.Terms, principal, payout custody.Gateway, persist Persister) (*Sale, error) {
	if err := config.ValidateTerms(terms); err != nil {
		return nil, err
	}
	book := ledger.NewBook(ledger.Schedule{
		FirstPayoutTime:        terms.FirstPayoutTime,
		MinPeriodSpacing:       terms.MinPeriodSpacing,
		MaturityTime:           terms.MaturityTime,
		EmergencyUnlockEnabled: terms.EmergencyUnlockEnabled,
		EmergencyPenaltyBps:    terms.EmergencyPenaltyBps,
	})
	return &Sale{
		Book:      book,
		Terms:     terms,
		Principal: principal,
		Payout:    payout,
		Persist:   persist,
	}, nil
}

// ResumeSale wraps an existing book, typically loaded from a store.
func ResumeSale(book *ledger.Book, terms config.Terms, principal, payout custody.Gateway, persist Persister) *Sale {
	return &Sale{
		Book:      book,
		Terms:     terms,
		Principal: principal,
		Payout:    payout,
		Persist:   persist,
	}
}

func (s *Sale) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// begin takes the non-reentrant lock. Callers must defer s.mu.Unlock() on
// success.
func (s *Sale) begin() error {
	if !s.mu.TryLock() {
		return ErrOperationInProgress
	}
	return nil
}

// snapshot captures the global state, the named holder records, and the
// round count, deep-copied so restore is exact.
type snapshot struct {
	global  ledger.GlobalState
	holders map[string]*ledger.Holder // nil value: record did not exist
	rounds  int
}

func (s *Sale) snapshot(ids ...string) snapshot {
	sn := snapshot{
		global:  s.Book.CloneGlobal(),
		holders: make(map[string]*ledger.Holder, len(ids)),
		rounds:  len(s.Book.Rounds),
	}
	for _, id := range ids {
		if h := s.Book.Holder(id); h != nil {
			sn.holders[id] = h.Clone()
		} else {
			sn.holders[id] = nil
		}
	}
	return sn
}

func (s *Sale) restore(sn snapshot) {
	s.Book.Global = sn.global
	for id, h := range sn.holders {
		if h == nil {
			delete(s.Book.Holders, id)
		} else {
			s.Book.Holders[id] = h
		}
	}
	s.Book.Rounds = s.Book.Rounds[:sn.rounds]
}

// commit persists the global record, the touched holders, and any rounds
// appended since the snapshot.
func (s *Sale) commit(sn snapshot, ids ...string) error {
	if s.Persist == nil {
		return nil
	}
	holders := make([]*ledger.Holder, 0, len(ids))
	for _, id := range ids {
		if h := s.Book.Holder(id); h != nil {
			holders = append(holders, h)
		}
	}
	return s.Persist.Commit(s.Book.Global, holders, s.Book.Rounds[sn.rounds:])
}

// totalDeposited is the lifetime principal across all holders, live and
// closed, used for the hard-cap check.
func (s *Sale) totalDeposited() uint64 {
	var total uint64
	for _, h := range s.Book.Holders {
		total += h.PrincipalDeposited
	}
	return total
}

// liveHolderIDs returns holders with outstanding shares, sorted for
// deterministic refund order.
func (s *Sale) liveHolderIDs() []string {
	var ids []string
	for id, h := range s.Book.Holders {
		if h.Shares > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
