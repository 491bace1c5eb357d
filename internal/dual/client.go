package dual

import (
	"context"
	"strconv"

	"gate-dual-hedge/internal/gate/rest"
)

// Client wraps the /earn/dual endpoints.
type Client struct {
	rest *rest.Client
}

func NewClient(restClient *rest.Client) *Client {
	return &Client{rest: restClient}
}

func (c *Client) ListOffers(ctx context.Context) ([]Offer, error) {
	var offers []Offer
	if err := c.rest.Get(ctx, "/earn/dual/investment_plan", "", &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

type placeOrderRequest struct {
	PlanID string `json:"plan_id"`
	Amount string `json:"amount"`
	Text   string `json:"text"`
}

// PlaceOrder submits an investment order for a plan. Amount is in the
// invest currency; text is the correlation tag carried back by the order
// listing.
func (c *Client) PlaceOrder(ctx context.Context, planID int64, amount, text string) (OrderRecord, error) {
	body := placeOrderRequest{
		PlanID: strconv.FormatInt(planID, 10),
		Amount: amount,
		Text:   text,
	}
	var record OrderRecord
	if err := c.rest.AuthPost(ctx, "/earn/dual/orders", body, &record); err != nil {
		return OrderRecord{}, err
	}
	return record, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]OrderRecord, error) {
	var records []OrderRecord
	if err := c.rest.AuthGet(ctx, "/earn/dual/orders", "", &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FindOrderByTag scans the remote order listing for the record carrying
// the given correlation tag.
func (c *Client) FindOrderByTag(ctx context.Context, tag string) (OrderRecord, bool, error) {
	records, err := c.ListOrders(ctx)
	if err != nil {
		return OrderRecord{}, false, err
	}
	for _, record := range records {
		if record.Text == tag {
			return record, true, nil
		}
	}
	return OrderRecord{}, false, nil
}
