package futures

import (
	"context"
	"errors"
	"fmt"

	"gate-dual-hedge/internal/gate/rest"
)

var ErrContractNotFound = errors.New("futures contract not found")

type Contract struct {
	Name             string `json:"name"`
	QuantoMultiplier string `json:"quanto_multiplier"`
}

type OrderRequest struct {
	Contract   string `json:"contract"`
	Size       int64  `json:"size"`
	Iceberg    int64  `json:"iceberg"`
	TIF        string `json:"tif"`
	Text       string `json:"text"`
	ReduceOnly bool   `json:"reduce_only,omitempty"`
}

type Order struct {
	ID        int64  `json:"id"`
	Contract  string `json:"contract"`
	Size      int64  `json:"size"`
	Left      int64  `json:"left"`
	FillPrice string `json:"fill_price"`
	Status    string `json:"status"`
	Text      string `json:"text"`
}

type Position struct {
	Contract   string `json:"contract"`
	Size       int64  `json:"size"`
	EntryPrice string `json:"entry_price"`
}

// Client wraps the /futures/{settle} endpoints for one settle currency.
type Client struct {
	rest   *rest.Client
	settle string
}

func NewClient(restClient *rest.Client, settle string) *Client {
	return &Client{rest: restClient, settle: settle}
}

// GetContract fetches the contract listing and returns the named entry.
func (c *Client) GetContract(ctx context.Context, name string) (Contract, error) {
	var contracts []Contract
	if err := c.rest.Get(ctx, c.path("/contracts"), "", &contracts); err != nil {
		return Contract{}, err
	}
	for _, contract := range contracts {
		if contract.Name == name {
			return contract, nil
		}
	}
	return Contract{}, fmt.Errorf("%s: %w", name, ErrContractNotFound)
}

// PlaceOrder submits a futures order. Negative size opens or extends a
// short; tif=ioc cancels any unfilled remainder.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (Order, error) {
	var order Order
	if err := c.rest.AuthPost(ctx, c.path("/orders"), req, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// GetPosition returns the live position for a contract, or false when the
// account holds none.
func (c *Client) GetPosition(ctx context.Context, contract string) (Position, bool, error) {
	var positions []Position
	if err := c.rest.AuthGet(ctx, c.path("/positions"), "contract="+contract, &positions); err != nil {
		return Position{}, false, err
	}
	for _, position := range positions {
		if position.Contract != contract {
			continue
		}
		if position.Size == 0 {
			return position, false, nil
		}
		return position, true, nil
	}
	return Position{}, false, nil
}

func (c *Client) path(suffix string) string {
	return "/futures/" + c.settle + suffix
}
