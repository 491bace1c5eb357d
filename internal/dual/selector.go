package dual

import (
	"errors"
	"time"
)

var ErrNoEligibleOffer = errors.New("no eligible dual investment offer")

// The nominal product term is one day. The delivery window is kept loose
// on purpose: it is the only filter between the bot and multi-day offers.
const (
	minTimeToDelivery = 12 * time.Hour
	maxTimeToDelivery = 48 * time.Hour
)

type Criteria struct {
	InvestCurrency   string
	ExerciseCurrency string
}

// SelectBestOffer filters offers down to ongoing one-day puts matching
// the configured currencies and returns the one with the highest
// advertised APY. Pure over the fetched list.
func SelectBestOffer(offers []Offer, criteria Criteria, now time.Time) (Offer, error) {
	var best Offer
	found := false
	for _, offer := range offers {
		if !Eligible(offer, criteria, now) {
			continue
		}
		if !found || offer.APY() > best.APY() {
			best = offer
			found = true
		}
	}
	if !found {
		return Offer{}, ErrNoEligibleOffer
	}
	return best, nil
}

func Eligible(offer Offer, criteria Criteria, now time.Time) bool {
	if offer.InvestCurrency != criteria.InvestCurrency {
		return false
	}
	if offer.ExerciseCurrency != criteria.ExerciseCurrency {
		return false
	}
	if offer.Type != KindPut {
		return false
	}
	if offer.Status != StatusOngoing {
		return false
	}
	toDelivery := offer.Delivery().Sub(now)
	return toDelivery >= minTimeToDelivery && toDelivery <= maxTimeToDelivery
}
