package strategy

import (
	"errors"
	"testing"

	"gate-dual-hedge/internal/config"
)

func TestCheckRiskPassesWithinLimits(t *testing.T) {
	cfg := config.RiskConfig{MaxNotionalUSD: 5000, MinAPY: 0.01}
	if err := CheckRisk(cfg, 1000, 0.09); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckRiskNotionalExceeded(t *testing.T) {
	cfg := config.RiskConfig{MaxNotionalUSD: 500}
	err := CheckRisk(cfg, 1000, 0.09)
	if !errors.Is(err, ErrNotionalExceeded) {
		t.Fatalf("expected ErrNotionalExceeded, got %v", err)
	}
}

func TestCheckRiskAPYBelowMinimum(t *testing.T) {
	cfg := config.RiskConfig{MinAPY: 0.05}
	err := CheckRisk(cfg, 1000, 0.01)
	if !errors.Is(err, ErrAPYBelowMinimum) {
		t.Fatalf("expected ErrAPYBelowMinimum, got %v", err)
	}
}

func TestCheckRiskZeroLimitsDisabled(t *testing.T) {
	if err := CheckRisk(config.RiskConfig{}, 1e9, 0); err != nil {
		t.Fatalf("expected zero limits to disable checks, got %v", err)
	}
}
