package spot

import (
	"context"

	"gate-dual-hedge/internal/gate/rest"
)

type OrderRequest struct {
	CurrencyPair string `json:"currency_pair"`
	Side         string `json:"side"`
	Type         string `json:"type"`
	Amount       string `json:"amount"`
	TimeInForce  string `json:"time_in_force"`
	Text         string `json:"text,omitempty"`
}

type Order struct {
	ID           string `json:"id"`
	CurrencyPair string `json:"currency_pair"`
	Status       string `json:"status"`
	Amount       string `json:"amount"`
	FilledAmount string `json:"filled_amount"`
}

// Client wraps the /spot endpoints needed by the unwind step.
type Client struct {
	rest *rest.Client
}

func NewClient(restClient *rest.Client) *Client {
	return &Client{rest: restClient}
}

// MarketSell liquidates base-currency holdings back into the quote
// currency. Amount is in the base currency for market sells.
func (c *Client) MarketSell(ctx context.Context, pair, amount, text string) (Order, error) {
	req := OrderRequest{
		CurrencyPair: pair,
		Side:         "sell",
		Type:         "market",
		Amount:       amount,
		TimeInForce:  "ioc",
		Text:         text,
	}
	var order Order
	if err := c.rest.AuthPost(ctx, "/spot/orders", req, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}
