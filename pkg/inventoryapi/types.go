package inventoryapi

import (
	"time"

	"github.com/shopspring/decimal"
)

// Page is the backend's page-number pagination envelope (20 results per page).
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether another page follows.
func (p Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

type User struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Fullname  string     `json:"fullname"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}

type CreateUserRequest struct {
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
	Role     string `json:"role"`
}

type Activity struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Fullname  string    `json:"fullname"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

type GroupRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Group struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	BelongsTo  *GroupRef `json:"belongs_to"`
	TotalItems string    `json:"total_items,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	BelongsToID string `json:"belongs_to_id,omitempty"`
}

type InventoryItem struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Group     *GroupRef       `json:"group"`
	Total     int             `json:"total"`
	Remaining int             `json:"remaining"`
	Price     decimal.Decimal `json:"price"`
	Photo     string          `json:"photo"`
	CreatedAt time.Time       `json:"created_at"`
}

type CreateInventoryRequest struct {
	Name    string          `json:"name"`
	GroupID string          `json:"group_id"`
	Total   int             `json:"total"`
	Price   decimal.Decimal `json:"price"`
	Photo   string          `json:"photo,omitempty"`
}

type TopSellingItem struct {
	InventoryItem
	SumOfItem int `json:"sum_of_item"`
}

type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateClientRequest struct {
	Name string `json:"name"`
}

type ClientSales struct {
	Name        string          `json:"name"`
	AmountTotal decimal.Decimal `json:"amount_total"`
	Month       *string         `json:"month,omitempty"`
}

type InvoiceLine struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

// OrderRequest is the only structure the cart sends to the backend.
type OrderRequest struct {
	ClientID int64         `json:"client_id"`
	Lines    []InvoiceLine `json:"invoice_item_data"`
}

type InvoiceItem struct {
	ID       int64           `json:"id"`
	ItemName string          `json:"item_name"`
	ItemCode string          `json:"item_code"`
	Quantity int             `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

type Invoice struct {
	ID           int64         `json:"id"`
	Client       *Client       `json:"client"`
	InvoiceItems []InvoiceItem `json:"invoice_items"`
	CreatedAt    time.Time     `json:"created_at"`
}

type Summary struct {
	TotalInventory int `json:"total_inventory"`
	TotalGroup     int `json:"total_group"`
	TotalClient    int `json:"total_client"`
	TotalUsers     int `json:"total_users"`
}

type PurchaseSummary struct {
	Price decimal.Decimal `json:"price"`
	Count int             `json:"count"`
}

// DateRange narrows dashboard reads. A zero Start means all time.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ListParams carries the backend's list query parameters.
type ListParams struct {
	Page    int
	Keyword string
}
