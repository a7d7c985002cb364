package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-api/internal/billing"
	ierr "github.com/diewo77/invoice-api/internal/errors"
	"github.com/diewo77/invoice-api/internal/logger"
	"github.com/diewo77/invoice-api/internal/metrics"
	"github.com/diewo77/invoice-api/internal/models"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// InvoiceService stores invoices and quotes. Totals come from the billing
// calculator and numbers from a persisted per-sequence counter.
type InvoiceService struct {
	db        *gorm.DB
	log       *zap.Logger
	calc      *billing.Calculator
	scope     billing.SequenceScope
	now       func() time.Time
	listLimit int

	// serialises creates inside this process; the counter row lock covers
	// the other processes
	mu sync.Mutex
}

type Option func(*InvoiceService)

func WithLogger(l *zap.Logger) Option {
	return func(s *InvoiceService) { s.log = logger.OrNop(l) }
}

func WithScope(scope billing.SequenceScope) Option {
	return func(s *InvoiceService) { s.scope = scope }
}

// WithClock sets the clock used for the numbering year and missing dates.
func WithClock(now func() time.Time) Option {
	return func(s *InvoiceService) { s.now = now }
}

// WithListLimit sets the number of documents List returns when asked for none.
func WithListLimit(n int) Option {
	return func(s *InvoiceService) {
		if n > 0 {
			s.listLimit = n
		}
	}
}

func NewInvoiceService(db *gorm.DB, opts ...Option) *InvoiceService {
	s := &InvoiceService{
		db:        db,
		log:       logger.Nop(),
		scope:     billing.ScopeGlobal,
		now:       time.Now,
		listLimit: DefaultListLimit,
	}
	for _, o := range opts {
		o(s)
	}
	s.calc = &billing.Calculator{Now: s.now}
	return s
}

// Create computes the totals of draft, assigns the next document number and
// stores the result.
func (s *InvoiceService) Create(ctx context.Context, draft models.Draft) (*models.Invoice, error) {
	inv, err := s.calc.ComputeTotals(draft)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.nextNumber(tx, inv.Type, s.now().Year())
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		if err := tx.Create(&inv).Error; err != nil {
			if isDuplicate(err) {
				return ierr.Conflict(err, "document number "+number+" is already taken")
			}
			return ierr.Database(err, "insert invoice")
		}
		return nil
	})
	if err != nil {
		metrics.DocumentError("create")
		s.log.Error("create document failed", zap.String("type", string(inv.Type)), zap.Error(err))
		return nil, err
	}

	metrics.DocumentCreated(string(inv.Type))
	s.log.Info("document created",
		zap.Uint("id", inv.ID),
		zap.String("number", inv.InvoiceNumber),
		zap.String("type", string(inv.Type)),
		zap.Float64("total", inv.Total),
	)
	return &inv, nil
}

// Get loads one document with its line items in order.
func (s *InvoiceService) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	return s.get(s.db.WithContext(ctx), id)
}

func (s *InvoiceService) get(tx *gorm.DB, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := tx.Preload("LineItems", orderedLines).First(&inv, id).Error
	if ierr.Is(err, gorm.ErrRecordNotFound) {
		return nil, ierr.NotFound("invoice %d not found", id)
	}
	if err != nil {
		return nil, ierr.Database(err, "load invoice")
	}
	return &inv, nil
}

// List returns the newest documents first. A limit <= 0 uses the
// configured default; limits above MaxListLimit are capped.
func (s *InvoiceService) List(ctx context.Context, limit int) ([]models.Invoice, error) {
	if limit <= 0 {
		limit = s.listLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	invs := []models.Invoice{}
	err := s.db.WithContext(ctx).
		Preload("LineItems", orderedLines).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&invs).Error
	if err != nil {
		return nil, ierr.Database(err, "list invoices")
	}
	return invs, nil
}

// Update recomputes a document from draft. The number, the type and the
// creation time never change; line items are replaced. A draft without a
// date or status keeps the stored one.
func (s *InvoiceService) Update(ctx context.Context, id uint, draft models.Draft) (*models.Invoice, error) {
	var out *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := s.get(tx, id)
		if err != nil {
			return err
		}
		if draft.Type != "" && draft.Type != cur.Type {
			return ierr.InvalidInput("document type cannot change from %s to %s", cur.Type, draft.Type)
		}
		draft.Type = cur.Type

		next, err := s.calc.ComputeTotals(draft)
		if err != nil {
			return err
		}
		if draft.Date == nil || draft.Date.IsZero() {
			next.Date = cur.Date
		}
		if draft.Status == "" {
			next.Status = cur.Status
		}
		next.ID = cur.ID
		next.InvoiceNumber = cur.InvoiceNumber
		next.CreatedAt = cur.CreatedAt

		if err := tx.Where("invoice_id = ?", id).Delete(&models.LineItem{}).Error; err != nil {
			return ierr.Database(err, "delete line items")
		}
		if err := tx.Save(&next).Error; err != nil {
			return ierr.Database(err, "save invoice")
		}
		out, err = s.get(tx, id)
		return err
	})
	if err != nil {
		if !ierr.IsInvalidInput(err) && !ierr.IsNotFound(err) && !ierr.IsComputation(err) {
			metrics.DocumentError("update")
			s.log.Error("update document failed", zap.Uint("id", id), zap.Error(err))
		}
		return nil, err
	}
	s.log.Info("document updated", zap.Uint("id", id), zap.String("number", out.InvoiceNumber))
	return out, nil
}

// Delete removes a document and its line items.
func (s *InvoiceService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.LineItem{}).Error; err != nil {
			return ierr.Database(err, "delete line items")
		}
		res := tx.Delete(&models.Invoice{}, id)
		if res.Error != nil {
			return ierr.Database(res.Error, "delete invoice")
		}
		if res.RowsAffected == 0 {
			return ierr.NotFound("invoice %d not found", id)
		}
		return nil
	})
	if err != nil {
		if !ierr.IsNotFound(err) {
			metrics.DocumentError("delete")
		}
		return err
	}
	s.log.Info("document deleted", zap.Uint("id", id))
	return nil
}

// Revenue sums the totals of paid invoices. Quotes never count.
func (s *InvoiceService) Revenue(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Select("COALESCE(SUM(total), 0)").
		Where("status = ? AND type = ?", models.InvoiceStatusPaid, models.DocumentTypeInvoice).
		Scan(&total).Error
	if err != nil {
		return 0, ierr.Database(err, "sum revenue")
	}
	return billing.Round2(total), nil
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("position asc, id asc")
}
