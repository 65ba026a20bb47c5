package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFundSnapshot(t *testing.T) {
	fundRepo := &mockFundRepository{contributed: 12000, loanedOut: 5000}
	svc := NewFundService(fundRepo)

	snapshot, err := svc.Snapshot(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 12000.0, snapshot.TotalFund)
	assert.Equal(t, 5000.0, snapshot.TotalLoanOut)
	assert.Equal(t, 7000.0, snapshot.AvailableFund)
}

func TestFundSnapshotRoundsToCents(t *testing.T) {
	fundRepo := &mockFundRepository{contributed: 1000.005, loanedOut: 333.333}
	svc := NewFundService(fundRepo)

	snapshot, err := svc.Snapshot(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1000.01, snapshot.TotalFund)
	assert.Equal(t, 333.33, snapshot.TotalLoanOut)
	assert.Equal(t, 666.67, snapshot.AvailableFund)
}

func TestFundSnapshotNeverNegative(t *testing.T) {
	// more principal out than done contributions after a correction
	fundRepo := &mockFundRepository{contributed: 1000, loanedOut: 3000}
	svc := NewFundService(fundRepo)

	snapshot, err := svc.Snapshot(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1000.0, snapshot.TotalFund)
	assert.Equal(t, 3000.0, snapshot.TotalLoanOut)
	assert.Equal(t, 0.0, snapshot.AvailableFund)
}

func TestFundSnapshotEmptyLedger(t *testing.T) {
	svc := NewFundService(&mockFundRepository{})

	available, err := svc.AvailableFund(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0.0, available)
}
