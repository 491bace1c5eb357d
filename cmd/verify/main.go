package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gate-dual-hedge/internal/config"
	"gate-dual-hedge/internal/dual"
	"gate-dual-hedge/internal/futures"
	"gate-dual-hedge/internal/gate/rest"
	"gate-dual-hedge/internal/logging"
	"gate-dual-hedge/internal/market"
	"gate-dual-hedge/internal/strategy"
)

const (
	defaultVerifyAmount  = 1000.0
	defaultVerifyEnvFile = ".env"
)

// verify is a read-only preflight: it runs offer selection and hedge
// sizing against the live public API and prints what the bot would do,
// without placing any order or needing credentials.
func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to config file")
	amountFlag := flag.Float64("amount", 0, "investment amount to size against (defaults to 1000)")
	flag.Parse()

	if err := config.LoadEnv(defaultVerifyEnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	log := logging.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	amount := defaultVerifyAmount
	if *amountFlag > 0 {
		amount = *amountFlag
	} else if raw := os.Getenv("GATE_VERIFY_AMOUNT"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			fatal(fmt.Errorf("invalid GATE_VERIFY_AMOUNT %q", raw))
		}
		amount = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	restClient := rest.New(cfg.REST.BaseURL, cfg.REST.Prefix, cfg.REST.Timeout, nil, log)
	dualClient := dual.NewClient(restClient)
	futuresClient := futures.NewClient(restClient, cfg.Strategy.Settle)
	marketData := market.New(restClient, nil, cfg.Strategy.Settle, log)

	offers, err := dualClient.ListOffers(ctx)
	if err != nil {
		fatal(err)
	}
	criteria := dual.Criteria{
		InvestCurrency:   cfg.Strategy.FundingAsset,
		ExerciseCurrency: cfg.Strategy.HedgeAsset,
	}
	now := time.Now()
	fmt.Printf("offers: %d total\n", len(offers))
	eligible := 0
	for _, offer := range offers {
		if !dual.Eligible(offer, criteria, now) {
			continue
		}
		eligible++
		fmt.Printf("  plan %d: APY %s%%, strike %.2f, delivery %s\n",
			offer.ID, offer.APYDisplay, offer.ExercisePrice,
			offer.Delivery().Format(time.RFC3339))
	}
	fmt.Printf("eligible: %d\n", eligible)

	best, err := dual.SelectBestOffer(offers, criteria, now)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("selected: plan %d (APY %s%%)\n", best.ID, best.APYDisplay)

	contract, err := futuresClient.GetContract(ctx, cfg.Strategy.Contract)
	if err != nil {
		fatal(err)
	}
	markPrice, err := marketData.Last(ctx, contract.Name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mark price unavailable: %v\n", err)
		markPrice = 0
	}

	notional := strategy.Notional(amount, cfg.Strategy.HedgeMultiplier)
	size := strategy.ContractSize(notional, contract.QuantoMultiplier, markPrice)
	fmt.Printf("sizing: invest %.2f %s, hedge notional %.2f, short %d %s contracts\n",
		amount, cfg.Strategy.FundingAsset, notional, size, contract.Name)
	if markPrice > 0 {
		fmt.Printf("        ~%.6f %s at mark %.2f\n",
			strategy.ImpliedBaseQuantity(notional, markPrice), cfg.Strategy.HedgeAsset, markPrice)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "verify: %v\n", err)
	os.Exit(1)
}
