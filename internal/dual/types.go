package dual

import (
	"strconv"
	"time"
)

// Offer kinds as reported by /earn/dual/investment_plan. A put-like offer
// pays out in the exercise currency at a discount when the strike is hit,
// which is the side this strategy hedges.
const (
	KindPut  = "put"
	KindCall = "call"
)

const StatusOngoing = "ONGOING"

// Investment order statuses. SETTLEMENT_SUCCESS is the only terminal
// state the monitor acts on; anything else keeps the poll loop waiting.
const OrderStatusSettled = "SETTLEMENT_SUCCESS"

type Offer struct {
	ID               int64   `json:"id"`
	InvestCurrency   string  `json:"invest_currency"`
	ExerciseCurrency string  `json:"exercise_currency"`
	Type             string  `json:"type"`
	Status           string  `json:"status"`
	DeliveryTime     int64   `json:"delivery_time"`
	ExercisePrice    float64 `json:"exercise_price"`
	APYDisplay       string  `json:"apy_display"`
}

// APY parses the advertised annualized yield. Malformed or missing values
// rank as zero rather than erroring, so a bad offer loses the ranking
// instead of aborting selection.
func (o Offer) APY() float64 {
	apy, err := strconv.ParseFloat(o.APYDisplay, 64)
	if err != nil {
		return 0
	}
	return apy
}

func (o Offer) Delivery() time.Time {
	return time.Unix(o.DeliveryTime, 0).UTC()
}

type OrderRecord struct {
	ID               int64  `json:"id"`
	PlanID           int64  `json:"plan_id"`
	Status           string `json:"status"`
	Text             string `json:"text"`
	Amount           string `json:"amount"`
	InvestCurrency   string `json:"invest_currency"`
	ExerciseCurrency string `json:"exercise_currency"`
	SettleCurrency   string `json:"settlement_currency"`
	SettleAmount     string `json:"settlement_amount"`
}

func (r OrderRecord) Settled() bool {
	return r.Status == OrderStatusSettled
}
