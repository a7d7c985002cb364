package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-api/internal/billing"
	"github.com/diewo77/invoice-api/internal/config"
	"github.com/diewo77/invoice-api/internal/db"
	ierr "github.com/diewo77/invoice-api/internal/errors"
	"github.com/diewo77/invoice-api/internal/models"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.Open(config.DatabaseConfig{
		Driver:         "sqlite",
		DBName:         fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		ConnectRetries: 1,
	}, false, nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, opts ...Option) (*InvoiceService, *gorm.DB) {
	conn := setupTestDB(t)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewInvoiceService(conn, opts...), conn
}

func rate(v float64) *float64 { return &v }

func num(v float64) *float64 { return &v }

func draftOf(t models.DocumentType, clientName string) models.Draft {
	return models.Draft{
		Type:   t,
		Client: models.Client{Name: clientName},
		LineItems: []models.DraftLineItem{
			{Description: "Développement", Quantity: num(2), UnitPrice: num(50), VATRate: rate(20)},
			{Description: "Support", Quantity: num(1), UnitPrice: num(30), VATRate: rate(10)},
		},
	}
}

func TestCreateAssignsNumberAndTotals(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	inv, err := svc.Create(ctx, draftOf("", "ACME"))
	require.NoError(t, err)
	assert.NotZero(t, inv.ID)
	assert.Equal(t, "FA2024-0001", inv.InvoiceNumber)
	assert.Equal(t, models.DocumentTypeInvoice, inv.Type)
	assert.Equal(t, models.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, 130.0, inv.Subtotal)
	assert.Equal(t, 23.0, inv.TotalVAT)
	assert.Equal(t, 153.0, inv.Total)
	assert.True(t, inv.Date.Equal(fixedNow))

	got, err := svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.LineItems, 2)
	assert.Equal(t, "Développement", got.LineItems[0].Description)
	assert.Equal(t, 100.0, got.LineItems[0].Total)
	assert.Equal(t, "ACME", got.Client.Name)
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	svc, conn := newTestService(t)
	_, err := svc.Create(context.Background(), models.Draft{Client: models.Client{Name: "ACME"}})
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidInput(err), "got %v", err)

	var n int64
	require.NoError(t, conn.Model(&models.Invoice{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestGlobalScopeSharesOneCounter(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var numbers []string
	for _, typ := range []models.DocumentType{models.DocumentTypeInvoice, models.DocumentTypeQuote, models.DocumentTypeInvoice} {
		inv, err := svc.Create(ctx, draftOf(typ, "ACME"))
		require.NoError(t, err)
		numbers = append(numbers, inv.InvoiceNumber)
	}
	assert.Equal(t, []string{"FA2024-0001", "DE2024-0002", "FA2024-0003"}, numbers)
}

func TestTypeYearScopeRestartsPerSequence(t *testing.T) {
	now := fixedNow
	svc, _ := newTestService(t, WithScope(billing.ScopeTypeYear), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	create := func(typ models.DocumentType) string {
		inv, err := svc.Create(ctx, draftOf(typ, "ACME"))
		require.NoError(t, err)
		return inv.InvoiceNumber
	}
	assert.Equal(t, "FA2024-0001", create(models.DocumentTypeInvoice))
	assert.Equal(t, "DE2024-0001", create(models.DocumentTypeQuote))
	assert.Equal(t, "FA2024-0002", create(models.DocumentTypeInvoice))

	now = time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "FA2025-0001", create(models.DocumentTypeInvoice))
}

func TestCounterSeedsFromExistingDocuments(t *testing.T) {
	svc, conn := newTestService(t)
	for i := 1; i <= 3; i++ {
		legacy := models.Invoice{
			InvoiceNumber: fmt.Sprintf("FA2023-%04d", i),
			Type:          models.DocumentTypeInvoice,
			Date:          fixedNow,
			Status:        models.InvoiceStatusPaid,
			Client:        models.Client{Name: "Legacy"},
		}
		require.NoError(t, conn.Create(&legacy).Error)
	}

	inv, err := svc.Create(context.Background(), draftOf("", "ACME"))
	require.NoError(t, err)
	assert.Equal(t, "FA2024-0004", inv.InvoiceNumber)
}

func TestConcurrentCreatesNeverDuplicate(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			typ := models.DocumentTypeInvoice
			if i%2 == 1 {
				typ = models.DocumentTypeQuote
			}
			_, err := svc.Create(ctx, draftOf(typ, fmt.Sprintf("client-%d", i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var invs []models.Invoice
	require.NoError(t, conn.Find(&invs).Error)
	require.Len(t, invs, n)
	seen := map[string]bool{}
	for _, inv := range invs {
		suffix := inv.InvoiceNumber[len(inv.InvoiceNumber)-4:]
		assert.False(t, seen[suffix], "duplicate sequence %s", suffix)
		seen[suffix] = true
	}
}

func TestCreateConflictWhenNumberTaken(t *testing.T) {
	svc, conn := newTestService(t)
	taken := models.Invoice{
		InvoiceNumber: "FA2024-0001",
		Type:          models.DocumentTypeInvoice,
		Date:          fixedNow,
		Status:        models.InvoiceStatusDraft,
		Client:        models.Client{Name: "Other"},
	}
	require.NoError(t, conn.Create(&taken).Error)
	// counter out of step with the stored documents
	require.NoError(t, conn.Create(&models.DocumentCounter{Scope: string(billing.ScopeGlobal), Value: 0}).Error)

	_, err := svc.Create(context.Background(), draftOf("", "ACME"))
	require.Error(t, err)
	assert.True(t, ierr.IsConflict(err), "got %v", err)
	assert.Equal(t, 409, ierr.HTTPStatus(err))

	var c models.DocumentCounter
	require.NoError(t, conn.First(&c, "scope = ?", "global").Error)
	assert.Equal(t, int64(0), c.Value, "failed create must roll the counter back")
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), 42)
	assert.True(t, ierr.IsNotFound(err), "got %v", err)
}

func TestListNewestFirstWithLimit(t *testing.T) {
	svc, _ := newTestService(t, WithListLimit(2))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, draftOf("", fmt.Sprintf("c%d", i)))
		require.NoError(t, err)
	}

	invs, err := svc.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, invs, 2)
	assert.Equal(t, "FA2024-0003", invs[0].InvoiceNumber)
	assert.Len(t, invs[0].LineItems, 2)

	invs, err = svc.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, invs, 3)
}

func TestListEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	invs, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, invs)
	assert.Empty(t, invs)
}

func TestUpdateKeepsNumberAndReplacesLines(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	inv, err := svc.Create(ctx, draftOf("", "ACME"))
	require.NoError(t, err)

	upd := models.Draft{
		Status: models.InvoiceStatusSent,
		Client: models.Client{Name: "ACME SAS", SIRET: "12345678900012"},
		LineItems: []models.DraftLineItem{
			{Description: "Audit", Quantity: num(3), UnitPrice: num(10), VATRate: rate(5.5)},
		},
		Notes: "merci",
	}
	got, err := svc.Update(ctx, inv.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, inv.InvoiceNumber, got.InvoiceNumber)
	assert.Equal(t, models.DocumentTypeInvoice, got.Type)
	assert.Equal(t, models.InvoiceStatusSent, got.Status)
	assert.Equal(t, "ACME SAS", got.Client.Name)
	assert.Equal(t, 30.0, got.Subtotal)
	assert.Equal(t, 1.65, got.TotalVAT)
	assert.Equal(t, 31.65, got.Total)
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, "Audit", got.LineItems[0].Description)
	assert.True(t, got.Date.Equal(inv.Date))

	var lines int64
	require.NoError(t, conn.Model(&models.LineItem{}).Count(&lines).Error)
	assert.Equal(t, int64(1), lines)
}

func TestUpdateWithoutStatusKeepsPaid(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	paid := draftOf("", "ACME")
	paid.Status = models.InvoiceStatusPaid
	inv, err := svc.Create(ctx, paid)
	require.NoError(t, err)

	edit := draftOf("", "ACME")
	edit.Notes = "corrected notes"
	updated, err := svc.Update(ctx, inv.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, updated.Status)
	assert.Equal(t, "corrected notes", updated.Notes)

	total, err := svc.Revenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 153.0, total)

	edit.Status = models.InvoiceStatusCancelled
	updated, err = svc.Update(ctx, inv.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusCancelled, updated.Status)
}

func TestUpdateRejectsTypeChange(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	inv, err := svc.Create(ctx, draftOf(models.DocumentTypeQuote, "ACME"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, inv.ID, draftOf(models.DocumentTypeInvoice, "ACME"))
	assert.True(t, ierr.IsInvalidInput(err), "got %v", err)

	got, err := svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentTypeQuote, got.Type)
	assert.Equal(t, "DE2024-0001", got.InvoiceNumber)
}

func TestUpdateNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Update(context.Background(), 9, draftOf("", "ACME"))
	assert.True(t, ierr.IsNotFound(err), "got %v", err)
}

func TestDelete(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	inv, err := svc.Create(ctx, draftOf("", "ACME"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, inv.ID))
	_, err = svc.Get(ctx, inv.ID)
	assert.True(t, ierr.IsNotFound(err))

	var lines int64
	require.NoError(t, conn.Model(&models.LineItem{}).Count(&lines).Error)
	assert.Zero(t, lines)

	assert.True(t, ierr.IsNotFound(svc.Delete(ctx, inv.ID)))
}

func TestRevenueCountsPaidInvoicesOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	total, err := svc.Revenue(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	paid := draftOf("", "ACME")
	paid.Status = models.InvoiceStatusPaid
	_, err = svc.Create(ctx, paid)
	require.NoError(t, err)
	_, err = svc.Create(ctx, draftOf("", "ACME"))
	require.NoError(t, err)
	paidQuote := draftOf(models.DocumentTypeQuote, "ACME")
	paidQuote.Status = models.InvoiceStatusPaid
	_, err = svc.Create(ctx, paidQuote)
	require.NoError(t, err)

	total, err = svc.Revenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 153.0, total)
}
