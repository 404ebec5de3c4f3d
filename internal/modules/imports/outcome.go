package imports

import (
	"fmt"

	"github.com/aristath/tradejournal/internal/domain"
)

// RowState is a stage in a row's journey through the importer
type RowState string

const (
	StatePending    RowState = "pending"
	StateNormalized RowState = "normalized"
	StatePriced     RowState = "priced"
	StatePersisted  RowState = "persisted"
	StateFailed     RowState = "failed"
)

// allowedTransitions lists the forward moves out of each non-terminal state
var allowedTransitions = map[RowState][]RowState{
	StatePending:    {StateNormalized, StateFailed},
	StateNormalized: {StatePriced, StateFailed},
	StatePriced:     {StatePersisted, StateFailed},
}

// rowMachine tracks one row and refuses backward or repeated transitions
type rowMachine struct {
	state    RowState
	failedAt RowState
}

func newRowMachine() *rowMachine {
	return &rowMachine{state: StatePending}
}

func (m *rowMachine) advance(to RowState) error {
	for _, allowed := range allowedTransitions[m.state] {
		if allowed == to {
			if to == StateFailed {
				m.failedAt = m.state
			}
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("invalid row transition %s -> %s", m.state, to)
}

// ImportOutcome is the result of importing one row
type ImportOutcome struct {
	Row       int              `json:"row"`
	Success   bool             `json:"success"`
	TradeID   string           `json:"trade_id,omitempty"`
	AccountID string           `json:"account_id"`
	NetPnL    *float64         `json:"net_pnl,omitempty"`
	State     RowState         `json:"state"`
	FailedAt  RowState         `json:"failed_at,omitempty"` // Last state reached before failing
	Kind      domain.ErrorKind `json:"kind,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// BatchResult aggregates the outcomes of one import call.
// Processed counts persisted rows and Errors counts failed rows.
type BatchResult struct {
	Success   bool             `json:"success"`
	Total     int              `json:"total"`
	Processed int              `json:"processed"`
	Errors    int              `json:"errors"`
	AccountID string           `json:"account_id,omitempty"`
	Cancelled bool             `json:"cancelled,omitempty"`
	Kind      domain.ErrorKind `json:"kind,omitempty"`
	Error     string           `json:"error,omitempty"`
	Results   []ImportOutcome  `json:"results"`
}

func (b *BatchResult) add(o ImportOutcome) {
	b.Results = append(b.Results, o)
	if o.Success {
		b.Processed++
	} else {
		b.Errors++
	}
}

// ErrorsByKind counts failed rows per error kind
func (b *BatchResult) ErrorsByKind() map[domain.ErrorKind]int {
	counts := make(map[domain.ErrorKind]int)
	for _, o := range b.Results {
		if !o.Success {
			counts[o.Kind]++
		}
	}
	return counts
}
