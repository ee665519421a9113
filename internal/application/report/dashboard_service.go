package report

import (
	"context"

	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/report"
	"github.com/invoicedesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DashboardRecorder observes computed dashboards, e.g. to export metrics
type DashboardRecorder interface {
	RecordDashboard(ctx context.Context, data *report.DashboardData)
}

// DashboardProvider is implemented by DashboardService and its cached decorator
type DashboardProvider interface {
	GetDashboardData(ctx context.Context, year *int) (*report.DashboardData, error)
	GetDeadlineCompliance(ctx context.Context, year *int, horizonDays int) (*report.DeadlineData, error)
}

// DashboardService fetches finalized invoices and runs every dashboard calculator
type DashboardService struct {
	gateway     invoicing.InvoiceGateway
	thresholds  report.Thresholds
	clock       report.Clock
	cashFlow    *CashFlowCalculator
	deadlines   *DeadlineComplianceCalculator
	reliability *ClientReliabilityCalculator
	revenue     *RevenueStructureCalculator
	recorder    DashboardRecorder
	logger      *zap.Logger
}

// DashboardServiceOption configures a DashboardService
type DashboardServiceOption func(*DashboardService)

// WithClock sets the reference clock
func WithClock(clock report.Clock) DashboardServiceOption {
	return func(s *DashboardService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRecorder sets a recorder notified after each computed dashboard
func WithRecorder(recorder DashboardRecorder) DashboardServiceOption {
	return func(s *DashboardService) {
		s.recorder = recorder
	}
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	gateway invoicing.InvoiceGateway,
	thresholds report.Thresholds,
	logger *zap.Logger,
	opts ...DashboardServiceOption,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DashboardService{
		gateway:    gateway,
		thresholds: thresholds.WithDefaults(),
		clock:      report.SystemClock,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cashFlow = NewCashFlowCalculator(s.thresholds)
	s.deadlines = NewDeadlineComplianceCalculator(s.thresholds, s.clock)
	s.reliability = NewClientReliabilityCalculator(s.thresholds, s.clock)
	s.revenue = NewRevenueStructureCalculator(s.thresholds)
	return s
}

func (s *DashboardService) fetchFinalized(ctx context.Context, year *int) ([]invoicing.InvoiceRecord, error) {
	finalized := true
	page, err := s.gateway.GetAllInvoices(ctx, 1, s.thresholds.DashboardPageSize, invoicing.InvoiceFilter{
		Finalized: &finalized,
		Year:      year,
	})
	if err != nil {
		s.logger.Error("Failed to fetch invoices for dashboard", zap.Error(err))
		return nil, err
	}
	if page == nil {
		return nil, nil
	}
	return page.Invoices, nil
}

// GetDashboardData computes a fresh dashboard snapshot.
// Gateway and calculator errors are returned as is, with no partial result.
func (s *DashboardService) GetDashboardData(ctx context.Context, year *int) (*report.DashboardData, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dashboard", "compute")
	defer span.End()
	if year != nil {
		telemetry.SetAttributes(span, telemetry.SpanAttrYear, *year)
	}
	s.logger.Debug("Computing dashboard", zap.Any("year", year))

	invoices, err := s.fetchFinalized(ctx, year)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var data *report.DashboardData
	telemetry.WithProfilingLabels(ctx, func(context.Context) {
		data, err = s.compute(invoices)
	}, "region", "dashboard_calculation")
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.RecordDashboard(ctx, data)
	}

	s.logger.Debug("Dashboard computed",
		zap.Int("invoice_count", len(invoices)),
		zap.String("dso", data.CashFlow.DSO.StringFixed(2)),
		zap.Bool("at_risk", data.CashFlow.IsAtRisk))

	return data, nil
}

// compute runs the calculators in their fixed order over one invoice set
func (s *DashboardService) compute(invoices []invoicing.InvoiceRecord) (*report.DashboardData, error) {
	cashFlow, err := s.cashFlow.Execute(invoices)
	if err != nil {
		s.logger.Error("Cash flow calculation failed", zap.Error(err))
		return nil, err
	}
	deadlines, err := s.deadlines.Execute(invoices, s.thresholds.DueSoonHorizonDays)
	if err != nil {
		s.logger.Error("Deadline compliance calculation failed", zap.Error(err))
		return nil, err
	}
	reliability, err := s.reliability.Execute(invoices)
	if err != nil {
		s.logger.Error("Client reliability calculation failed", zap.Error(err))
		return nil, err
	}
	revenue, err := s.revenue.Execute(invoices)
	if err != nil {
		s.logger.Error("Revenue structure calculation failed", zap.Error(err))
		return nil, err
	}

	return &report.DashboardData{
		CashFlow:           cashFlow,
		DeadlineCompliance: deadlines,
		ClientReliability:  reliability,
		RevenueStructure:   revenue,
		GeneratedAt:        s.clock(),
	}, nil
}

// GetDeadlineCompliance buckets finalized invoices with a caller-chosen horizon
func (s *DashboardService) GetDeadlineCompliance(ctx context.Context, year *int, horizonDays int) (*report.DeadlineData, error) {
	invoices, err := s.fetchFinalized(ctx, year)
	if err != nil {
		return nil, err
	}
	data, err := s.deadlines.Execute(invoices, horizonDays)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// Clock returns the reference clock used by the service
func (s *DashboardService) Clock() report.Clock {
	return s.clock
}
