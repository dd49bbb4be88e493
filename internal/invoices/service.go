package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/invoicedesk/internal/cart"
	"github.com/angelmondragon/invoicedesk/internal/receipts"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/angelmondragon/invoicedesk/pkg/inventoryapi"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
	"github.com/angelmondragon/invoicedesk/pkg/metrics"
	"github.com/google/uuid"
)

const (
	defaultSubmitTimeout  = 15 * time.Second
	defaultMaxClientPages = 50
	defaultTerminal       = "TERMINAL #1"
)

type orderClient interface {
	CreateInvoice(ctx context.Context, token string, order inventoryapi.OrderRequest) (*inventoryapi.Invoice, error)
	ListClients(ctx context.Context, token string, params inventoryapi.ListParams) (*inventoryapi.Page[inventoryapi.Client], error)
	ListInvoices(ctx context.Context, token string, params inventoryapi.ListParams) (*inventoryapi.Page[inventoryapi.Invoice], error)
}

// Printer receives the receipt of every successful submission.
type Printer interface {
	Print(ctx context.Context, receipt receipts.Receipt) error
}

type submissionRecorder interface {
	Observe(outcome string, duration time.Duration)
	IncPrinted(ok bool)
}

// Service submits carts to the inventory backend as invoices.
type Service interface {
	Submit(ctx context.Context, c *cart.Cart, input SubmitInput) (*Result, error)
	RequestClientSelection(ctx context.Context, c *cart.Cart, token string) ([]inventoryapi.Client, error)
	List(ctx context.Context, token string, params inventoryapi.ListParams) (*inventoryapi.Page[inventoryapi.Invoice], error)
}

// SubmitInput identifies who the invoice is for and who is issuing it.
type SubmitInput struct {
	Token      string
	ClientID   int64
	ClientName string
	IssuedBy   int64
}

// Result is a confirmed submission and the receipt handed to the printer.
type Result struct {
	Invoice *inventoryapi.Invoice `json:"invoice"`
	Receipt receipts.Receipt      `json:"receipt"`
}

// Options tunes submission behaviour; zero values fall back to defaults.
type Options struct {
	Terminal       string
	SubmitTimeout  time.Duration
	MaxClientPages int
}

type service struct {
	api      orderClient
	printer  Printer
	recorder submissionRecorder
	logg     *logger.Logger
	opts     Options
	now      func() time.Time
}

// NewService builds the invoice submitter.
func NewService(api orderClient, printer Printer, recorder *metrics.SubmissionMetrics, logg *logger.Logger, opts Options) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("inventory api client required")
	}
	if printer == nil {
		return nil, fmt.Errorf("receipt printer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.Terminal == "" {
		opts.Terminal = defaultTerminal
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = defaultSubmitTimeout
	}
	if opts.MaxClientPages <= 0 {
		opts.MaxClientPages = defaultMaxClientPages
	}
	var rec submissionRecorder = recorder
	if recorder == nil {
		rec = &metrics.SubmissionMetrics{}
	}
	return &service{
		api:      api,
		printer:  printer,
		recorder: rec,
		logg:     logg,
		opts:     opts,
		now:      time.Now,
	}, nil
}

// Submit sends the cart as one invoice. The cart stays locked while the
// request is in flight; it is cleared and printed only when the backend
// confirms, and left untouched otherwise.
func (s *service) Submit(ctx context.Context, c *cart.Cart, input SubmitInput) (*Result, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart required")
	}
	started := s.now()

	lines, err := c.BeginSubmission()
	if err != nil {
		switch {
		case pkgerrors.HasCode(err, pkgerrors.CodeCartEmpty):
			s.recorder.Observe(metrics.OutcomeEmptyCart, 0)
		case pkgerrors.HasCode(err, pkgerrors.CodeSubmissionInProgress):
			s.recorder.Observe(metrics.OutcomeInProgress, 0)
		}
		return nil, err
	}
	if input.ClientID <= 0 {
		c.FinishSubmission(false)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a client must be selected")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"client_id": input.ClientID,
		"lines":     len(lines),
	})

	order := inventoryapi.OrderRequest{ClientID: input.ClientID, Lines: make([]inventoryapi.InvoiceLine, 0, len(lines))}
	for _, line := range lines {
		order.Lines = append(order.Lines, inventoryapi.InvoiceLine{ItemID: line.ItemID, Quantity: line.Quantity})
	}

	submitCtx, cancel := context.WithTimeout(ctx, s.opts.SubmitTimeout)
	invoice, err := s.api.CreateInvoice(submitCtx, input.Token, order)
	timedOut := errors.Is(submitCtx.Err(), context.DeadlineExceeded)
	cancel()
	if err != nil {
		c.FinishSubmission(false)
		return nil, s.submissionError(ctx, err, timedOut, started)
	}

	c.FinishSubmission(true)
	s.recorder.Observe(metrics.OutcomeSuccess, s.now().Sub(started))

	receipt := receipts.FromCart(s.header(input, invoice), lines)
	if err := s.printer.Print(ctx, receipt); err != nil {
		s.recorder.IncPrinted(false)
		s.logg.Error(ctx, "invoice.print.failed", err)
	} else {
		s.recorder.IncPrinted(true)
	}

	s.logg.Info(s.logg.WithField(ctx, "receipt_id", receipt.ID.String()), "invoice.submit.succeeded")
	return &Result{Invoice: invoice, Receipt: receipt}, nil
}

func (s *service) submissionError(ctx context.Context, err error, timedOut bool, started time.Time) error {
	elapsed := s.now().Sub(started)
	ctx = s.logg.WithField(ctx, "error", err.Error())

	if timedOut || errors.Is(err, context.DeadlineExceeded) {
		s.recorder.Observe(metrics.OutcomeTimedOut, elapsed)
		s.logg.Warn(ctx, "invoice.submit.timed_out")
		return pkgerrors.Wrap(pkgerrors.CodeSubmissionTimedOut, err, "invoice submission timed out")
	}

	s.recorder.Observe(metrics.OutcomeFailed, elapsed)
	s.logg.Warn(ctx, "invoice.submit.failed")

	message := "invoice submission failed"
	details := map[string]any{}
	if apiErr := inventoryapi.AsAPIError(err); apiErr != nil {
		if apiErr.Message != "" {
			message = apiErr.Message
		}
		details["status"] = apiErr.Status
	}
	return pkgerrors.Wrap(pkgerrors.CodeSubmissionFailed, err, message).WithDetails(details)
}

func (s *service) header(input SubmitInput, invoice *inventoryapi.Invoice) receipts.Header {
	h := receipts.Header{
		SubmissionID: uuid.New(),
		ClientID:     input.ClientID,
		ClientName:   input.ClientName,
		Terminal:     s.opts.Terminal,
		IssuedBy:     input.IssuedBy,
		IssuedAt:     s.now(),
	}
	if invoice == nil {
		return h
	}
	if !invoice.CreatedAt.IsZero() {
		h.IssuedAt = invoice.CreatedAt
	}
	if h.ClientName == "" && invoice.Client != nil {
		h.ClientName = invoice.Client.Name
	}
	return h
}

// RequestClientSelection lists every selectable client, but only once the
// cart has something to invoice.
func (s *service) RequestClientSelection(ctx context.Context, c *cart.Cart, token string) ([]inventoryapi.Client, error) {
	if c == nil || c.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeCartEmpty, "add items before selecting a client")
	}

	var clients []inventoryapi.Client
	for page := 1; page <= s.opts.MaxClientPages; page++ {
		resp, err := s.api.ListClients(ctx, token, inventoryapi.ListParams{Page: page})
		if err != nil {
			return nil, err
		}
		clients = append(clients, resp.Results...)
		if !resp.HasNext() {
			return clients, nil
		}
	}
	s.logg.Warn(s.logg.WithField(ctx, "clients", len(clients)), "invoice.clients.truncated")
	return clients, nil
}

func (s *service) List(ctx context.Context, token string, params inventoryapi.ListParams) (*inventoryapi.Page[inventoryapi.Invoice], error) {
	return s.api.ListInvoices(ctx, token, params)
}
