package inventoryapi

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
)

const (
	dateLayout   = "2006-01-02"
	csvFormField = "data"
)

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if kw := strings.TrimSpace(p.Keyword); kw != "" {
		q.Set("keyword", kw)
	}
	return q
}

func (r DateRange) values() url.Values {
	q := url.Values{}
	if r.Start.IsZero() {
		return q
	}
	q.Set("start_date", r.Start.Format(dateLayout))
	end := r.End
	if end.IsZero() {
		end = r.Start
	}
	q.Set("end_date", end.Format(dateLayout))
	return q
}

func (c *API) ListInventory(ctx context.Context, token string, params ListParams) (*Page[InventoryItem], error) {
	var out Page[InventoryItem]
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "app/inventory", token: token, query: params.values()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) CreateInventory(ctx context.Context, token string, in CreateInventoryRequest) (*InventoryItem, error) {
	var out InventoryItem
	if err := c.do(ctx, request{method: http.MethodPost, endpoint: "app/inventory", token: token, body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadInventoryCSV forwards a bulk inventory file to the backend as the
// "data" form field, the way the backend's CSV loader expects it.
func (c *API) UploadInventoryCSV(ctx context.Context, token, filename string, file io.Reader) error {
	if file == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "inventory csv file is required")
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = "inventory.csv"
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile(csvFormField, filename)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build inventory csv form")
	}
	if _, err := io.Copy(part, file); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read inventory csv")
	}
	if err := form.Close(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build inventory csv form")
	}

	return c.do(ctx, request{
		method:      http.MethodPost,
		endpoint:    "app/inventory-csv",
		token:       token,
		payload:     &buf,
		contentType: form.FormDataContentType(),
	}, nil)
}

func (c *API) ListGroups(ctx context.Context, token string, params ListParams) (*Page[Group], error) {
	var out Page[Group]
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "app/group", token: token, query: params.values()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) CreateGroup(ctx context.Context, token string, in CreateGroupRequest) (*Group, error) {
	var out Group
	if err := c.do(ctx, request{method: http.MethodPost, endpoint: "app/group", token: token, body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) ListClients(ctx context.Context, token string, params ListParams) (*Page[Client], error) {
	var out Page[Client]
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "app/client", token: token, query: params.values()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) CreateClient(ctx context.Context, token string, in CreateClientRequest) (*Client, error) {
	var out Client
	if err := c.do(ctx, request{method: http.MethodPost, endpoint: "app/client", token: token, body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) ListInvoices(ctx context.Context, token string, params ListParams) (*Page[Invoice], error) {
	var out Page[Invoice]
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "app/invoice", token: token, query: params.values()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateInvoice posts a finished cart. The backend decrements stock and
// rejects the whole invoice when any line exceeds remaining quantity.
func (c *API) CreateInvoice(ctx context.Context, token string, order OrderRequest) (*Invoice, error) {
	if order.ClientID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	if len(order.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one invoice item is required")
	}
	var out Invoice
	if err := c.do(ctx, request{method: http.MethodPost, endpoint: "app/invoice", token: token, body: order}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) Summary(ctx context.Context, token string) (*Summary, error) {
	var out Summary
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "app/summary", token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) TopSelling(ctx context.Context, token string, rng DateRange) ([]TopSellingItem, error) {
	var out []TopSellingItem
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "app/top-selling", token: token, query: rng.values()}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *API) SalesByClient(ctx context.Context, token string, rng DateRange, monthly bool) ([]ClientSales, error) {
	q := rng.values()
	if monthly {
		q.Set("monthly", "true")
	}
	var out []ClientSales
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "app/sales-by-client", token: token, query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *API) PurchaseSummary(ctx context.Context, token string, rng DateRange) (*PurchaseSummary, error) {
	var out PurchaseSummary
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "app/purchase-summary", token: token, query: rng.values()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
