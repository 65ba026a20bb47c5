package services

import "github.com/mandalhq/mandal-api/internal/models"

// Permission checks are pure functions over the member record so they
// can be tested without a database and reused across handlers.

// CanSubmitContribution reports whether the member may pay into the fund
func CanSubmitContribution(member *models.Member) bool {
	return member != nil && member.IsEligible()
}

// CanRequestLoan reports whether the member may borrow from the fund
func CanRequestLoan(member *models.Member) bool {
	return member != nil && member.IsEligible()
}

// CanReview reports whether the member may approve or reject submissions
func CanReview(member *models.Member) bool {
	return member != nil && member.IsAdmin() && member.Active
}

// CanViewLoan reports whether the member may see a given loan
func CanViewLoan(member *models.Member, loan *models.Loan) bool {
	if member == nil || loan == nil {
		return false
	}
	return member.IsAdmin() || loan.MemberID == member.ID
}

// CanViewContribution reports whether the member may see a contribution
func CanViewContribution(member *models.Member, contribution *models.Contribution) bool {
	if member == nil || contribution == nil {
		return false
	}
	return member.IsAdmin() || contribution.MemberID == member.ID
}
