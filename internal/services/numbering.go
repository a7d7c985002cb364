package services

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/invoice-api/internal/billing"
	ierr "github.com/diewo77/invoice-api/internal/errors"
	"github.com/diewo77/invoice-api/internal/models"
)

// nextNumber reserves the next number of the sequence t/year belongs to.
// It must run inside tx: the counter row stays locked until commit, so two
// creates can never read the same existing count.
func (s *InvoiceService) nextNumber(tx *gorm.DB, t models.DocumentType, year int) (string, error) {
	key, err := billing.CounterKey(s.scope, t, year)
	if err != nil {
		return "", err
	}

	counter, err := s.lockCounter(tx, key)
	if ierr.Is(err, gorm.ErrRecordNotFound) {
		// First use of this sequence: seed from the stored documents.
		seed, cerr := s.countExisting(tx, t, year)
		if cerr != nil {
			return "", cerr
		}
		row := models.DocumentCounter{Scope: key, Value: seed}
		if cerr := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; cerr != nil {
			return "", ierr.Database(cerr, "seed document counter")
		}
		counter, err = s.lockCounter(tx, key)
	}
	if err != nil {
		return "", ierr.Database(err, "lock document counter")
	}

	number, err := billing.AssignNumber(counter.Value, t, year)
	if err != nil {
		return "", err
	}
	if err := tx.Model(&models.DocumentCounter{}).
		Where("scope = ?", key).
		Update("value", gorm.Expr("value + 1")).Error; err != nil {
		return "", ierr.Database(err, "advance document counter")
	}
	return number, nil
}

func (s *InvoiceService) lockCounter(tx *gorm.DB, key string) (models.DocumentCounter, error) {
	var c models.DocumentCounter
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("scope = ?", key).
		Take(&c).Error
	return c, err
}

// countExisting counts the stored documents of a sequence.
func (s *InvoiceService) countExisting(tx *gorm.DB, t models.DocumentType, year int) (int64, error) {
	q := tx.Model(&models.Invoice{})
	if s.scope == billing.ScopeTypeYear {
		prefix, err := billing.Prefix(t)
		if err != nil {
			return 0, err
		}
		q = q.Where("invoice_number LIKE ?", prefix+strconv.Itoa(year)+"-%")
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, ierr.Database(err, "count documents")
	}
	return n, nil
}

// isDuplicate reports a unique constraint violation, translated or not.
func isDuplicate(err error) bool {
	if ierr.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}

// SyncCounters raises every counter of the configured scope to the highest
// sequence already stored, so the next create cannot reuse a number.
// Counters are never lowered. It returns how many counters changed.
func (s *InvoiceService) SyncCounters(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var numbers []string
	if err := s.db.WithContext(ctx).Model(&models.Invoice{}).Pluck("invoice_number", &numbers).Error; err != nil {
		return 0, ierr.Database(err, "list document numbers")
	}
	highest := map[string]int64{}
	for _, n := range numbers {
		t, year, seq, err := billing.ParseNumber(n)
		if err != nil {
			s.log.Warn("skipping malformed document number", zap.String("number", n))
			continue
		}
		key, err := billing.CounterKey(s.scope, t, year)
		if err != nil {
			return 0, err
		}
		if seq > highest[key] {
			highest[key] = seq
		}
	}

	changed := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, seq := range highest {
			cur, err := s.lockCounter(tx, key)
			switch {
			case ierr.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&models.DocumentCounter{Scope: key, Value: seq}).Error; err != nil {
					return ierr.Database(err, "create document counter")
				}
			case err != nil:
				return ierr.Database(err, "lock document counter")
			case cur.Value < seq:
				if err := tx.Model(&models.DocumentCounter{}).Where("scope = ?", key).Update("value", seq).Error; err != nil {
					return ierr.Database(err, "raise document counter")
				}
			default:
				continue
			}
			s.log.Info("document counter synced", zap.String("scope", key), zap.Int64("value", seq))
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
