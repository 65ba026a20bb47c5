package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/mandalhq/mandal-api/internal/models"
)

// ContributionFSM wraps a contribution with its state machine
type ContributionFSM struct {
	contribution *models.Contribution
	fsm          *fsm.FSM
}

// NewContributionFSM creates a new contribution state machine
func NewContributionFSM(contribution *models.Contribution) *ContributionFSM {
	cfsm := &ContributionFSM{
		contribution: contribution,
	}

	cfsm.fsm = fsm.NewFSM(
		contribution.Status,
		fsm.Events{
			// pending → done
			{Name: "approve", Src: []string{models.ContributionStatusPending}, Dst: models.ContributionStatusDone},

			// pending/rejected → rejected (re-reject updates remarks)
			{Name: "reject", Src: []string{models.ContributionStatusPending, models.ContributionStatusRejected}, Dst: models.ContributionStatusRejected},
		},
		fsm.Callbacks{},
	)

	return cfsm
}

// Approve transitions contribution to done state
func (c *ContributionFSM) Approve(ctx context.Context) error {
	if !c.contribution.MayApprove() {
		return fmt.Errorf("contribution cannot be approved in current state: %s", c.contribution.Status)
	}

	if err := c.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve contribution: %w", err)
	}

	c.contribution.Status = c.fsm.Current()
	return nil
}

// Reject transitions contribution to rejected state
func (c *ContributionFSM) Reject(ctx context.Context) error {
	if !c.contribution.MayReject() {
		return fmt.Errorf("contribution cannot be rejected in current state: %s", c.contribution.Status)
	}

	// rejected → rejected is allowed so an admin can revise the remark
	if c.contribution.Status == models.ContributionStatusRejected {
		return nil
	}

	if err := c.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject contribution: %w", err)
	}

	c.contribution.Status = c.fsm.Current()
	return nil
}

// Current returns the current state
func (c *ContributionFSM) Current() string {
	return c.fsm.Current()
}

// Can checks if a transition is possible
func (c *ContributionFSM) Can(event string) bool {
	return c.fsm.Can(event)
}
