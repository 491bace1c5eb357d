package strategy

import (
	"errors"
	"fmt"

	"gate-dual-hedge/internal/config"
)

var (
	ErrNotionalExceeded = errors.New("hedge notional exceeds configured maximum")
	ErrAPYBelowMinimum  = errors.New("offer apy below configured minimum")
)

func CheckRisk(cfg config.RiskConfig, notional, apy float64) error {
	if cfg.MaxNotionalUSD > 0 && notional > cfg.MaxNotionalUSD {
		return fmt.Errorf("notional %.2f above %.2f: %w", notional, cfg.MaxNotionalUSD, ErrNotionalExceeded)
	}
	if cfg.MinAPY > 0 && apy < cfg.MinAPY {
		return fmt.Errorf("apy %.4f below %.4f: %w", apy, cfg.MinAPY, ErrAPYBelowMinimum)
	}
	return nil
}
