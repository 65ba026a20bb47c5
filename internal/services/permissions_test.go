package services

import (
	"testing"

	"github.com/mandalhq/mandal-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestEligibilityGates(t *testing.T) {
	member := eligibleMember(1)
	assert.True(t, CanSubmitContribution(member))
	assert.True(t, CanRequestLoan(member))
	assert.False(t, CanReview(member))

	member.KYCStatus = models.KYCStatusUnderReview
	assert.False(t, CanSubmitContribution(member))
	assert.False(t, CanRequestLoan(member))

	assert.False(t, CanSubmitContribution(nil))
}

func TestCanReview(t *testing.T) {
	admin := &models.Member{ID: 99, Role: models.RoleAdmin, Active: true}
	assert.True(t, CanReview(admin))

	admin.Active = false
	assert.False(t, CanReview(admin))
}

func TestCanViewLoan(t *testing.T) {
	owner := eligibleMember(1)
	other := eligibleMember(2)
	admin := &models.Member{ID: 99, Role: models.RoleAdmin, Active: true}
	loan := &models.Loan{ID: 1, MemberID: 1}

	assert.True(t, CanViewLoan(owner, loan))
	assert.False(t, CanViewLoan(other, loan))
	assert.True(t, CanViewLoan(admin, loan))
	assert.False(t, CanViewLoan(nil, loan))
}
