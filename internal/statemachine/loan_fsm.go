package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/mandalhq/mandal-api/internal/models"
)

// LoanFSM wraps a loan with its state machine. Closure is only reachable
// through Close, which the installment approval path drives; submitting a
// repayment never transitions the loan by itself.
type LoanFSM struct {
	loan *models.Loan
	fsm  *fsm.FSM
}

// NewLoanFSM creates a new loan state machine
func NewLoanFSM(loan *models.Loan) *LoanFSM {
	lfsm := &LoanFSM{
		loan: loan,
	}

	lfsm.fsm = fsm.NewFSM(
		loan.Status,
		fsm.Events{
			// pending → active
			{Name: "approve", Src: []string{models.LoanStatusPending}, Dst: models.LoanStatusActive},

			// pending/rejected → rejected
			{Name: "reject", Src: []string{models.LoanStatusPending, models.LoanStatusRejected}, Dst: models.LoanStatusRejected},

			// active/approved → closed
			{Name: "close", Src: []string{models.LoanStatusActive, models.LoanStatusApproved}, Dst: models.LoanStatusClosed},
		},
		fsm.Callbacks{},
	)

	return lfsm
}

// Approve transitions loan to active state
func (l *LoanFSM) Approve(ctx context.Context) error {
	if !l.loan.MayApprove() {
		return fmt.Errorf("loan cannot be approved in current state: %s", l.loan.Status)
	}

	if err := l.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Reject transitions loan to rejected state
func (l *LoanFSM) Reject(ctx context.Context) error {
	if !l.loan.MayReject() {
		return fmt.Errorf("loan cannot be rejected in current state: %s", l.loan.Status)
	}

	if l.loan.Status == models.LoanStatusRejected {
		return nil
	}

	if err := l.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Close transitions loan to closed state once nothing remains payable
func (l *LoanFSM) Close(ctx context.Context) error {
	if !l.loan.MayClose() {
		return fmt.Errorf("loan cannot be closed in current state: %s (pending %.2f)", l.loan.Status, l.loan.PendingAmount)
	}

	if err := l.fsm.Event(ctx, "close"); err != nil {
		return fmt.Errorf("failed to close loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Current returns the current state
func (l *LoanFSM) Current() string {
	return l.fsm.Current()
}

// Can checks if a transition is possible
func (l *LoanFSM) Can(event string) bool {
	return l.fsm.Can(event)
}
