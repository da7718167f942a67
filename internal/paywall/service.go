package paywall

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lendiq/riskcore/internal/logging"
	"github.com/lendiq/riskcore/internal/metrics"
	"github.com/lendiq/riskcore/internal/riskdata"
	"github.com/lendiq/riskcore/internal/traces"
)

// Service orchestrates credits, entitlements, and report fetching.
type Service struct {
	credits      CreditLedger
	entitlements Entitlements
	riskData     RiskDataProvider
	reportAPI    ReportAPI
	events       Publisher // optional
}

// NewService creates a new paywall service.
func NewService(credits CreditLedger, entitlements Entitlements, riskData RiskDataProvider, reportAPI ReportAPI) *Service {
	return &Service{
		credits:      credits,
		entitlements: entitlements,
		riskData:     riskData,
		reportAPI:    reportAPI,
	}
}

// WithPublisher attaches an event publisher for live dashboard updates.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.events = p
	return s
}

// PurchaseReport unlocks the (transaction, map type) report.
//
// An active entitlement short-circuits without consuming a credit, so
// repeated purchases of the same pair cost exactly one credit. With no
// entitlement and no credits it fails with ErrInsufficientCredits and
// leaves no state behind.
func (s *Service) PurchaseReport(ctx context.Context, transactionID, riskMapType string) (*PurchaseResult, error) {
	ctx, span := traces.StartSpan(ctx, "paywall.purchase",
		traces.TransactionID(transactionID),
		traces.ReportType(riskMapType),
	)
	defer span.End()

	if _, err := riskdata.ParseMapType(riskMapType); err != nil {
		return nil, err
	}

	owned, err := s.entitlements.IsPurchased(ctx, transactionID, riskMapType)
	if err != nil {
		metrics.ReportsPurchasedTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if owned {
		bal, err := s.credits.Balance(ctx)
		if err != nil {
			return nil, err
		}
		metrics.ReportsPurchasedTotal.WithLabelValues("already_owned").Inc()
		return &PurchaseResult{Purchased: true, AlreadyOwned: true, CreditsLeft: bal}, nil
	}

	ok, err := s.credits.ConsumeOne(ctx)
	if err != nil {
		metrics.ReportsPurchasedTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if !ok {
		metrics.ReportsPurchasedTotal.WithLabelValues("insufficient_credits").Inc()
		return nil, ErrInsufficientCredits
	}

	rec, err := s.entitlements.AddPurchase(ctx, transactionID, riskMapType)
	if err != nil {
		// The credit is spent but the entitlement failed to persist;
		// surface the error rather than invent an entitlement.
		metrics.ReportsPurchasedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("record entitlement: %w", err)
	}

	bal, err := s.credits.Balance(ctx)
	if err != nil {
		return nil, err
	}

	metrics.ReportsPurchasedTotal.WithLabelValues("purchased").Inc()
	if s.events != nil {
		s.events.Publish("report_purchased", rec)
	}
	logging.L(ctx).Info("report unlocked",
		"transaction_id", transactionID,
		"risk_map_type", riskMapType,
		"credits_left", bal,
	)

	return &PurchaseResult{Purchased: true, Record: rec, CreditsLeft: bal}, nil
}

// FetchFullRiskReport ensures the report is purchased, then fetches the
// risk map data and the collaborator report concurrently. Either failure
// fails the whole operation; no partial merge is returned.
func (s *Service) FetchFullRiskReport(ctx context.Context, transactionID, riskMapType string) (*FullReport, error) {
	ctx, span := traces.StartSpan(ctx, "paywall.full_report",
		traces.TransactionID(transactionID),
		traces.ReportType(riskMapType),
	)
	defer span.End()

	if _, err := s.PurchaseReport(ctx, transactionID, riskMapType); err != nil {
		return nil, err
	}

	var (
		data    *riskdata.RiskData
		details *ReportDetails
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.riskData.Fetch(gctx, riskdata.MapType(riskMapType), false)
		if err != nil {
			return fmt.Errorf("risk data: %w", err)
		}
		data = d
		return nil
	})
	g.Go(func() error {
		d, err := s.reportAPI.FetchFullReport(gctx, transactionID, riskMapType)
		if err != nil {
			return fmt.Errorf("report details: %w", err)
		}
		details = d
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &FullReport{
		TransactionID: transactionID,
		RiskMapType:   riskMapType,
		RiskData:      data,
		Details:       details,
	}, nil
}
