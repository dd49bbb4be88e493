package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"

	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/angelmondragon/invoicedesk/pkg/inventoryapi"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Dashboard sections, also used to report which ones failed.
const (
	SectionSummary       = "summary"
	SectionTopSelling    = "top_selling"
	SectionSalesByClient = "sales_by_client"
	SectionMonthlySales  = "monthly_sales"
	SectionPurchases     = "purchases"
)

type reportClient interface {
	Summary(ctx context.Context, token string) (*inventoryapi.Summary, error)
	TopSelling(ctx context.Context, token string, rng inventoryapi.DateRange) ([]inventoryapi.TopSellingItem, error)
	SalesByClient(ctx context.Context, token string, rng inventoryapi.DateRange, monthly bool) ([]inventoryapi.ClientSales, error)
	PurchaseSummary(ctx context.Context, token string, rng inventoryapi.DateRange) (*inventoryapi.PurchaseSummary, error)
}

// Overview is everything the dashboard shows. Sections that could not be
// loaded are left empty and named in Failed.
type Overview struct {
	Summary       *inventoryapi.Summary         `json:"summary,omitempty"`
	TopSelling    []inventoryapi.TopSellingItem `json:"top_selling"`
	SalesByClient []inventoryapi.ClientSales    `json:"sales_by_client"`
	MonthlySales  []inventoryapi.ClientSales    `json:"monthly_sales"`
	Purchases     *inventoryapi.PurchaseSummary `json:"purchases,omitempty"`
	Failed        []string                      `json:"failed,omitempty"`
}

type Service interface {
	Overview(ctx context.Context, token string, rng inventoryapi.DateRange) (*Overview, error)
}

type service struct {
	api  reportClient
	logg *logger.Logger
}

func NewService(api reportClient, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("inventory api client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{api: api, logg: logg}, nil
}

// Overview loads every section concurrently. A failing section does not stop
// the others; the call only fails when nothing could be loaded.
func (s *service) Overview(ctx context.Context, token string, rng inventoryapi.DateRange) (*Overview, error) {
	if !rng.Start.IsZero() && !rng.End.IsZero() && rng.End.Before(rng.Start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must not precede start date")
	}

	var (
		out  Overview
		mu   sync.Mutex
		errs error
		g    errgroup.Group
	)
	fail := func(section string, err error) {
		mu.Lock()
		defer mu.Unlock()
		out.Failed = append(out.Failed, section)
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", section, err))
	}

	g.Go(func() error {
		summary, err := s.api.Summary(ctx, token)
		if err != nil {
			fail(SectionSummary, err)
			return nil
		}
		out.Summary = summary
		return nil
	})
	g.Go(func() error {
		top, err := s.api.TopSelling(ctx, token, rng)
		if err != nil {
			fail(SectionTopSelling, err)
			return nil
		}
		out.TopSelling = top
		return nil
	})
	g.Go(func() error {
		sales, err := s.api.SalesByClient(ctx, token, rng, false)
		if err != nil {
			fail(SectionSalesByClient, err)
			return nil
		}
		out.SalesByClient = sales
		return nil
	})
	g.Go(func() error {
		monthly, err := s.api.SalesByClient(ctx, token, rng, true)
		if err != nil {
			fail(SectionMonthlySales, err)
			return nil
		}
		out.MonthlySales = monthly
		return nil
	})
	g.Go(func() error {
		purchases, err := s.api.PurchaseSummary(ctx, token, rng)
		if err != nil {
			fail(SectionPurchases, err)
			return nil
		}
		out.Purchases = purchases
		return nil
	})
	_ = g.Wait()

	if errs == nil {
		return &out, nil
	}
	sort.Strings(out.Failed)
	failures := multierr.Errors(errs)
	if len(failures) == sectionCount {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "dashboard unavailable")
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"failed_sections": out.Failed,
		"error":           errs.Error(),
	}), "dashboard.overview.partial")
	return &out, nil
}

const sectionCount = 5
