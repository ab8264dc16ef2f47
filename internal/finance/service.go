package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/orders"
	dbpkg "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db/models"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/outbox"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/outbox/payloads"
)

// reportSortFields is the allowlist for seller report ordering.
var reportSortFields = map[string]string{
	"finalized_at":      "finalized_at",
	"gross_amount":      "gross_amount",
	"seller_net_amount": "seller_net_amount",
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns the immutable settlement ledger: one snapshot per completed
// order, corrections only as adjustment rows.
type Service interface {
	FinalizeTx(ctx context.Context, tx *gorm.DB, order *models.Order, actor orders.Actor) (*models.OrderFinance, error)
	AddAdjustmentTx(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*models.FinanceAdjustment, error)
	GetOrderFinance(ctx context.Context, orderID uuid.UUID) (*models.OrderFinance, []models.FinanceAdjustment, error)
	SetCommissionRate(ctx context.Context, input SetCommissionInput) (*models.CommissionSetting, error)
	ListCommissionHistory(ctx context.Context, limit int) ([]models.CommissionSetting, error)
	ActiveCommission(ctx context.Context) (*models.CommissionSetting, error)
	SellerSummary(ctx context.Context, sellerID uuid.UUID, filters SummaryFilters) (*SellerSummary, error)
	SellerReport(ctx context.Context, req ReportRequest) ([]ReportRow, error)
}

type service struct {
	db     *gorm.DB
	repo   Repository
	outbox outboxPublisher
}

// NewService builds the finance service.
func NewService(db *gorm.DB, repo Repository, outboxSvc outboxPublisher) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if repo == nil {
		return nil, fmt.Errorf("finance repository required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{db: db, repo: repo, outbox: outboxSvc}, nil
}

// FinalizeTx writes the settlement snapshot inside the caller's completion
// transaction. The unique index on order_id absorbs retried completions: an
// existing snapshot is returned as success and nothing is emitted twice.
func (s *service) FinalizeTx(ctx context.Context, tx *gorm.DB, order *models.Order, actor orders.Actor) (*models.OrderFinance, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order required")
	}
	repo := s.repo.WithTx(tx)

	existing, err := repo.FindSnapshotByOrder(ctx, order.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load finance snapshot")
	}

	now := time.Now().UTC()
	setting, err := repo.ActiveCommission(ctx, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "no commission rate configured")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission rate")
	}

	commission := order.TotalAmount.Mul(setting.Rate).Round(2)
	snapshot := &models.OrderFinance{
		OrderID:             order.ID,
		SellerID:            order.SellerID,
		GrossAmount:         order.TotalAmount,
		CommissionRate:      setting.Rate,
		CommissionAmount:    commission,
		SellerNetAmount:     order.TotalAmount.Sub(commission),
		CommissionVersionID: setting.ID,
		Currency:            order.Currency,
		FinalizedAt:         now,
	}
	if err := repo.InsertSnapshot(ctx, snapshot); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_order_finance_order") {
			return repo.FindSnapshotByOrder(ctx, order.ID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert finance snapshot")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventFinanceSnapshotFinalized,
		AggregateType: enums.AggregateOrderFinance,
		AggregateID:   snapshot.ID,
		Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
		Data: payloads.FinanceSnapshotFinalizedEvent{
			OrderFinanceID:      snapshot.ID,
			OrderID:             snapshot.OrderID,
			SellerID:            snapshot.SellerID,
			GrossAmount:         snapshot.GrossAmount,
			CommissionRate:      snapshot.CommissionRate,
			CommissionAmount:    snapshot.CommissionAmount,
			SellerNetAmount:     snapshot.SellerNetAmount,
			CommissionVersionID: snapshot.CommissionVersionID,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// AddAdjustmentTx appends a signed correction referencing the snapshot.
func (s *service) AddAdjustmentTx(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*models.FinanceAdjustment, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if input.OrderFinanceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order finance id required")
	}
	if input.Amount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment amount must be non-zero")
	}
	if !input.Party.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment party must be seller or platform")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeReasonRequired, "adjustment reason required")
	}
	if input.CreatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "creator identity missing")
	}
	repo := s.repo.WithTx(tx)

	if _, err := repo.FindSnapshotByID(ctx, input.OrderFinanceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "finance snapshot not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load finance snapshot")
	}

	adjustment := &models.FinanceAdjustment{
		OrderFinanceID: input.OrderFinanceID,
		Party:          input.Party,
		Amount:         input.Amount,
		Reason:         strings.TrimSpace(input.Reason),
		SourceType:     input.SourceType,
		SourceID:       input.SourceID,
		CreatedBy:      input.CreatedBy,
	}
	if adjustment.SourceType == "" {
		adjustment.SourceType = "manual"
	}
	if err := repo.InsertAdjustment(ctx, adjustment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert finance adjustment")
	}
	return adjustment, nil
}

func (s *service) GetOrderFinance(ctx context.Context, orderID uuid.UUID) (*models.OrderFinance, []models.FinanceAdjustment, error) {
	if orderID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	snapshot, err := s.repo.FindSnapshotByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "finance snapshot not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load finance snapshot")
	}
	adjustments, err := s.repo.ListAdjustments(ctx, snapshot.ID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list finance adjustments")
	}
	return snapshot, adjustments, nil
}

func (s *service) SetCommissionRate(ctx context.Context, input SetCommissionInput) (*models.CommissionSetting, error) {
	if input.Rate.IsNegative() || input.Rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rate must be in [0, 1)")
	}
	if input.CreatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "creator identity missing")
	}
	effectiveFrom := input.EffectiveFrom
	if effectiveFrom.IsZero() {
		effectiveFrom = time.Now().UTC()
	}
	setting := &models.CommissionSetting{
		Rate:          input.Rate,
		EffectiveFrom: effectiveFrom,
		CreatedBy:     input.CreatedBy,
	}
	if err := s.repo.InsertCommission(ctx, setting); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert commission setting")
	}
	return setting, nil
}

func (s *service) ActiveCommission(ctx context.Context) (*models.CommissionSetting, error) {
	setting, err := s.repo.ActiveCommission(ctx, time.Now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no commission rate in effect")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active commission")
	}
	return setting, nil
}

func (s *service) ListCommissionHistory(ctx context.Context, limit int) ([]models.CommissionSetting, error) {
	rows, err := s.repo.ListCommissions(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list commission settings")
	}
	return rows, nil
}

// SellerSummary reports settled totals plus the adjustment delta so payouts
// can be computed as snapshot + adjustments.
func (s *service) SellerSummary(ctx context.Context, sellerID uuid.UUID, filters SummaryFilters) (*SellerSummary, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}

	base := s.db.WithContext(ctx).
		Model(&models.OrderFinance{}).
		Where("seller_id = ?", sellerID)
	if filters.From != nil {
		base = base.Where("finalized_at >= ?", *filters.From)
	}
	if filters.To != nil {
		base = base.Where("finalized_at <= ?", *filters.To)
	}

	var totals struct {
		OrderCount      int64
		GrossTotal      decimal.Decimal
		CommissionTotal decimal.Decimal
		NetTotal        decimal.Decimal
	}
	err := base.
		Select("COUNT(*) AS order_count, COALESCE(SUM(gross_amount), 0) AS gross_total, COALESCE(SUM(commission_amount), 0) AS commission_total, COALESCE(SUM(seller_net_amount), 0) AS net_total").
		Scan(&totals).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate finance snapshots")
	}

	// Platform-party rows stay out of the payable: they record refunds the
	// platform absorbs, not money moving to or from the seller.
	adjQ := s.db.WithContext(ctx).
		Table("finance_adjustments").
		Joins("JOIN order_finance ON order_finance.id = finance_adjustments.order_finance_id").
		Where("order_finance.seller_id = ?", sellerID).
		Where("finance_adjustments.party = ?", enums.LiabilityPartySeller)
	if filters.From != nil {
		adjQ = adjQ.Where("order_finance.finalized_at >= ?", *filters.From)
	}
	if filters.To != nil {
		adjQ = adjQ.Where("order_finance.finalized_at <= ?", *filters.To)
	}
	var adjustments struct {
		AdjustmentsTotal decimal.Decimal
	}
	err = adjQ.
		Select("COALESCE(SUM(finance_adjustments.amount), 0) AS adjustments_total").
		Scan(&adjustments).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate finance adjustments")
	}

	return &SellerSummary{
		SellerID:         sellerID,
		OrderCount:       totals.OrderCount,
		GrossTotal:       totals.GrossTotal,
		CommissionTotal:  totals.CommissionTotal,
		NetTotal:         totals.NetTotal,
		AdjustmentsTotal: adjustments.AdjustmentsTotal,
		PayableTotal:     totals.NetTotal.Add(adjustments.AdjustmentsTotal),
	}, nil
}

func (s *service) SellerReport(ctx context.Context, req ReportRequest) ([]ReportRow, error) {
	if req.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	sortField := req.SortField
	if sortField == "" {
		sortField = "finalized_at"
	}
	column, ok := reportSortFields[sortField]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeSortFieldInvalid, "unsupported sort field").
			WithDetails(map[string]string{"field": sortField})
	}
	direction := "ASC"
	if req.SortDesc {
		direction = "DESC"
	}
	pageSize := req.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 25
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	var rows []ReportRow
	err := s.db.WithContext(ctx).
		Model(&models.OrderFinance{}).
		Select("id AS order_finance_id, order_id, gross_amount, commission_rate, seller_net_amount, currency, finalized_at").
		Where("seller_id = ?", req.SellerID).
		Order(column + " " + direction).
		Order("id ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller report")
	}
	return rows, nil
}
