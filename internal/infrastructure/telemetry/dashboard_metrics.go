package telemetry

import (
	"context"

	"github.com/invoicedesk/backend/internal/domain/report"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// DashboardMetrics exports the headline figures of each computed dashboard as gauges.
type DashboardMetrics struct {
	dso           *FloatGauge
	outstanding   *FloatGauge
	issued        *FloatGauge
	deadlineCount *Gauge
	atRisk        *Gauge
	latePayers    *Gauge
	computedTotal *Counter
	logger        *zap.Logger
}

// NewDashboardMetrics creates the dashboard instruments on meter.
func NewDashboardMetrics(meter metric.Meter, logger *zap.Logger) (*DashboardMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &DashboardMetrics{logger: logger}
	var err error
	if m.dso, err = NewFloatGauge(meter, "invoice_dso_days",
		"Days sales outstanding of the last computed dashboard", "d"); err != nil {
		return nil, err
	}
	if m.outstanding, err = NewFloatGauge(meter, "invoice_outstanding_receivables",
		"Unpaid amount of finalized invoices", "{currency}"); err != nil {
		return nil, err
	}
	if m.issued, err = NewFloatGauge(meter, "invoice_total_issued",
		"Total amount of finalized invoices", "{currency}"); err != nil {
		return nil, err
	}
	if m.deadlineCount, err = NewGauge(meter, "invoice_deadline_count",
		"Unpaid invoices per deadline bucket", "{invoice}"); err != nil {
		return nil, err
	}
	if m.atRisk, err = NewGauge(meter, "invoice_at_risk",
		"1 when the cash flow is flagged at risk", "1"); err != nil {
		return nil, err
	}
	if m.latePayers, err = NewGauge(meter, "invoice_late_payers",
		"Customers with at least one overdue invoice", "{customer}"); err != nil {
		return nil, err
	}
	if m.computedTotal, err = NewCounter(meter, "invoice_dashboard_computations_total",
		"Number of dashboards computed", "{dashboard}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordDashboard implements report.DashboardRecorder.
func (m *DashboardMetrics) RecordDashboard(ctx context.Context, data *report.DashboardData) {
	if data == nil {
		return
	}

	m.dso.Record(ctx, data.CashFlow.DSO.InexactFloat64())
	m.outstanding.Record(ctx, data.CashFlow.OutstandingReceivables.InexactFloat64())
	m.issued.Record(ctx, data.CashFlow.TotalIssued.InexactFloat64())
	m.deadlineCount.Record(ctx, int64(len(data.DeadlineCompliance.Overdue)), AttrBucket.String("overdue"))
	m.deadlineCount.Record(ctx, int64(len(data.DeadlineCompliance.DueSoon)), AttrBucket.String("due_soon"))
	var atRisk int64
	if data.CashFlow.IsAtRisk {
		atRisk = 1
	}
	m.atRisk.Record(ctx, atRisk)
	m.latePayers.Record(ctx, int64(len(data.ClientReliability.LatePayers)))
	m.computedTotal.Inc(ctx)

	m.logger.Debug("Dashboard metrics recorded", zap.Bool("at_risk", data.CashFlow.IsAtRisk))
}

