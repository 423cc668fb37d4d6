package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/riolentius/retail-backoffice/internal/usecase/order"
	"github.com/riolentius/retail-backoffice/internal/usecase/stock"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("transaction not found")
	ErrOrderMissing    = errors.New("order not found")
	ErrValidation      = errors.New("validation failed")
	ErrPersistence     = errors.New("persistence failure")
	ErrVersionConflict = errors.New("transaction was modified concurrently")

	// ErrReconcileInProgress means another Reconcile call holds the record.
	ErrReconcileInProgress = errors.New("reconciliation already in progress")

	errNothingToReconcile = errors.New("nothing to reconcile")
)

const (
	DefaultPaymentTolerance = 0.1
	DefaultDraftRetention   = time.Hour
	maxUpdateAttempts       = 5
)

type Store interface {
	Insert(ctx context.Context, tenantID string, tx Transaction) (*Transaction, error)
	FetchByID(ctx context.Context, tenantID, id string) (*Transaction, error)
	// FetchByReference matches order references by substring and skips saved drafts.
	FetchByReference(ctx context.Context, tenantID, reference string) ([]Transaction, error)
	FetchAllSaved(ctx context.Context, tenantID string) ([]Transaction, error)
	// FetchAll returns every transaction of the tenant except saved drafts.
	FetchAll(ctx context.Context, tenantID string) ([]Transaction, error)
	// Update is a compare-and-swap on tx.Version; a stale version yields ErrVersionConflict.
	Update(ctx context.Context, tenantID string, tx Transaction) (*Transaction, error)
	Delete(ctx context.Context, tenantID, id string) error
	DeleteSavedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type IntentProcessor interface {
	Process(ctx context.Context, tenantID string, intents []stock.Intent) []stock.IntentResult
}

// ReconciliationError reports a stored transaction whose stock bookkeeping is
// incomplete. Either some intents failed (the transaction is flagged and can be
// re-driven with Reconcile) or the flag itself could not be written, in which
// case RecordErr is set and the failures only exist in the error log.
type ReconciliationError struct {
	TransactionID string
	Failures      []stock.IntentResult
	RecordErr     error
}

func (e *ReconciliationError) Error() string {
	if e.RecordErr != nil {
		return fmt.Sprintf("transaction %s: stock applied, %d intent(s) failed, reconciliation record not saved: %v",
			e.TransactionID, len(e.Failures), e.RecordErr)
	}
	return fmt.Sprintf("transaction %s: %d stock intent(s) need reconciliation", e.TransactionID, len(e.Failures))
}

func (e *ReconciliationError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures)+1)
	for _, f := range e.Failures {
		out = append(out, f.Err)
	}
	if e.RecordErr != nil {
		out = append(out, e.RecordErr)
	}
	return out
}

type Usecase struct {
	store     Store
	intents   IntentProcessor
	log       *zap.Logger
	now       func() time.Time
	tolerance float64
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option {
	return func(u *Usecase) { u.now = now }
}

func WithPaymentTolerance(t float64) Option {
	return func(u *Usecase) {
		if t >= 0 {
			u.tolerance = t
		}
	}
}

func New(store Store, intents IntentProcessor, log *zap.Logger, opts ...Option) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	u := &Usecase{
		store:     store,
		intents:   intents,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		tolerance: DefaultPaymentTolerance,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *Usecase) Create(ctx context.Context, tenantID string, in CreateInput) (*Transaction, error) {
	// 1) Validate input shape
	if tenantID == "" || len(in.Products) == 0 {
		return nil, ErrInvalidInput
	}
	if in.TransactionType == "" {
		in.TransactionType = TypeOut
	}
	if !in.TransactionType.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, in.TransactionType)
	}

	now := u.now()
	tx := Transaction{
		ID:              uuid.NewString(),
		TenantID:        tenantID,
		Customer:        in.Customer,
		TransactionType: in.TransactionType,
		Products:        in.Products,
		Payments:        in.Payments,
		OrderDate:       now,
		OrderNotes:      in.OrderNotes,
		Salesperson:     in.Salesperson,
		Kiosk:           in.Kiosk,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if tx.OrderNotes == nil {
		tx.OrderNotes = []order.Note{}
	}
	if tx.Payments == nil {
		tx.Payments = []Payment{}
	}

	// 2) Normalize orders (ids, instances, initial status) and payments
	refs := make(map[string]struct{}, len(tx.Products))
	for i := range tx.Products {
		ref := tx.Products[i].Reference
		if _, dup := refs[ref]; dup {
			return nil, fmt.Errorf("%w: duplicate order reference %q", ErrInvalidInput, ref)
		}
		refs[ref] = struct{}{}
		if err := tx.Products[i].Normalize(now); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	for i := range tx.Payments {
		p := &tx.Payments[i]
		if p.Amount < 0 {
			return nil, fmt.Errorf("%w: negative payment amount", ErrInvalidInput)
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Timestamp.IsZero() {
			p.Timestamp = now
		}
		if p.Status == "" {
			p.Status = PaymentStatusCompleted
		}
	}
	tx.OrderTotal = TotalCost(tx)

	// 3) Payments must cover the cost, drafts excepted
	if tx.TransactionType != TypeSaved {
		paid := TotalPaid(tx.Payments)
		if !withinTolerance(paid, tx.OrderTotal, u.tolerance) {
			return nil, fmt.Errorf("%w: paid %s does not match cost %s",
				ErrValidation, FormatMoney(paid), FormatMoney(tx.OrderTotal))
		}
	}

	// 4) Persist
	inserted, err := u.store.Insert(ctx, tenantID, tx)
	if err != nil {
		return nil, err
	}

	// 5) Apply stock intents
	var recErr error
	if inserted.TransactionType != TypeSaved {
		recErr = u.applyIntents(ctx, tenantID, inserted.ID, GenerateIntents(*inserted), false)
	}

	// 6) Return the stored form. Stock has moved by now, so a failed
	// re-fetch must not turn into an error the client would retry on.
	out, err := u.store.FetchByID(ctx, tenantID, inserted.ID)
	if err != nil {
		u.log.Warn("re-fetch after create failed, returning inserted copy",
			zap.String("tenant_id", tenantID),
			zap.String("transaction_id", inserted.ID),
			zap.Error(err))
		return inserted, recErr
	}
	return out, recErr
}

// applyIntents runs intents and records the outcome on the transaction.
// flagged says whether the stored transaction currently carries a
// reconciliation record; without one and without failures nothing is written.
func (u *Usecase) applyIntents(ctx context.Context, tenantID, txID string, intents []stock.Intent, flagged bool) error {
	var failed []stock.IntentResult
	if len(intents) > 0 {
		failed = stock.Failed(u.intents.Process(ctx, tenantID, intents))
		u.log.Info("stock intents processed",
			zap.String("tenant_id", tenantID),
			zap.String("transaction_id", txID),
			zap.Int("intents", len(intents)),
			zap.Int("failed", len(failed)))
	}
	if len(failed) == 0 && !flagged {
		return nil
	}

	if err := u.setReconciliation(ctx, tenantID, txID, failed); err != nil {
		fields := []zap.Field{
			zap.String("tenant_id", tenantID),
			zap.String("transaction_id", txID),
			zap.Int("failed", len(failed)),
			zap.Error(err),
		}
		for i, f := range failed {
			fields = append(fields, zap.Stringer(fmt.Sprintf("intent_%d", i), f.Intent),
				zap.NamedError(fmt.Sprintf("cause_%d", i), f.Err))
		}
		u.log.Error("stock intents applied but reconciliation record not written", fields...)
		return &ReconciliationError{TransactionID: txID, Failures: failed, RecordErr: err}
	}
	if len(failed) > 0 {
		return &ReconciliationError{TransactionID: txID, Failures: failed}
	}
	return nil
}

func (u *Usecase) setReconciliation(ctx context.Context, tenantID, txID string, failed []stock.IntentResult) error {
	_, err := u.mutate(ctx, tenantID, txID, func(tx *Transaction) error {
		if len(failed) == 0 {
			tx.Reconciliation = nil
			return nil
		}
		rec := &Reconciliation{Status: ReconciliationRequired, FlaggedAt: u.now()}
		for _, f := range failed {
			rec.Failures = append(rec.Failures, FailedIntent{
				Intent:   f.Intent,
				Cause:    f.Err.Error(),
				Attempts: f.Attempts,
			})
		}
		tx.Reconciliation = rec
		return nil
	})
	return err
}

// Reconcile re-drives the intents recorded as failed on a flagged transaction.
// The record is claimed under the version check first, so concurrent calls
// never apply the same intents twice; the loser gets ErrReconcileInProgress.
func (u *Usecase) Reconcile(ctx context.Context, tenantID, id string) (*Transaction, error) {
	if tenantID == "" || id == "" {
		return nil, ErrInvalidInput
	}

	var intents []stock.Intent
	_, err := u.mutate(ctx, tenantID, id, func(tx *Transaction) error {
		intents = nil
		rec := tx.Reconciliation
		if rec == nil {
			return errNothingToReconcile
		}
		if rec.Status == ReconciliationInProgress {
			return ErrReconcileInProgress
		}
		for _, f := range rec.Failures {
			intents = append(intents, f.Intent)
		}
		rec.Status = ReconciliationInProgress
		return nil
	})
	if errors.Is(err, errNothingToReconcile) {
		return u.store.FetchByID(ctx, tenantID, id)
	}
	if err != nil {
		return nil, err
	}

	recErr := u.applyIntents(ctx, tenantID, id, intents, true)

	out, err := u.store.FetchByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return out, recErr
}

func (u *Usecase) GetByID(ctx context.Context, tenantID, id string) (*Transaction, error) {
	if tenantID == "" || id == "" {
		return nil, ErrInvalidInput
	}
	return u.store.FetchByID(ctx, tenantID, id)
}

func (u *Usecase) SearchByReference(ctx context.Context, tenantID, reference string) ([]Transaction, error) {
	reference = strings.TrimSpace(reference)
	if tenantID == "" || reference == "" {
		return nil, ErrInvalidInput
	}
	return u.store.FetchByReference(ctx, tenantID, reference)
}

func (u *Usecase) ListSaved(ctx context.Context, tenantID string) ([]Transaction, error) {
	if tenantID == "" {
		return nil, ErrInvalidInput
	}
	return u.store.FetchAllSaved(ctx, tenantID)
}

func (u *Usecase) UpdateOrderStatus(ctx context.Context, tenantID, id, reference string, in UpdateOrderStatusInput) (*Transaction, error) {
	if tenantID == "" || id == "" || reference == "" {
		return nil, ErrInvalidInput
	}
	return u.mutate(ctx, tenantID, id, func(tx *Transaction) error {
		o, err := tx.findOrder(reference)
		if err != nil {
			return err
		}
		if err := o.SetStatus(in.Status, in.Reason, u.now()); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return nil
	})
}

func (u *Usecase) UpdateProductStatus(ctx context.Context, tenantID, id, reference, purchaseID, instanceID string, in UpdateProductStatusInput) (*Transaction, error) {
	if tenantID == "" || id == "" || reference == "" || purchaseID == "" || instanceID == "" {
		return nil, ErrInvalidInput
	}
	return u.mutate(ctx, tenantID, id, func(tx *Transaction) error {
		o, err := tx.findOrder(reference)
		if err != nil {
			return err
		}
		p, err := o.FindPurchase(purchaseID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		inst, err := p.FindInstance(instanceID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		now := u.now()
		if err := inst.SetPickStatus(in.Status, now); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		o.UpdatedAt = now
		return nil
	})
}

// DeliverableJobs lists orders leaving storeCode that have not been dispatched yet.
func (u *Usecase) DeliverableJobs(ctx context.Context, tenantID, storeCode string) ([]Job, error) {
	return u.jobs(ctx, tenantID, storeCode, func(o order.Order) bool {
		return o.Origin.StoreCode == storeCode && order.IsQueued(o.Status.Status)
	})
}

// ReceivableJobs lists orders still on their way to storeCode.
func (u *Usecase) ReceivableJobs(ctx context.Context, tenantID, storeCode string) ([]Job, error) {
	return u.jobs(ctx, tenantID, storeCode, func(o order.Order) bool {
		return o.Destination.StoreCode == storeCode && order.IsNotFulfilledNorFailed(o.Status.Status)
	})
}

func (u *Usecase) jobs(ctx context.Context, tenantID, storeCode string, match func(order.Order) bool) ([]Job, error) {
	if tenantID == "" || storeCode == "" {
		return nil, ErrInvalidInput
	}
	all, err := u.store.FetchAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	out := make([]Job, 0)
	for _, tx := range all {
		if tx.TransactionType == TypeQuote {
			continue
		}
		for _, o := range tx.Products {
			if match(o) {
				out = append(out, Job{TransactionID: tx.ID, Order: o})
			}
		}
	}
	return out, nil
}

func (u *Usecase) Delete(ctx context.Context, tenantID, id string) error {
	if tenantID == "" || id == "" {
		return ErrInvalidInput
	}
	return u.store.Delete(ctx, tenantID, id)
}

// PurgeStaleDrafts removes saved drafts older than retention across all tenants.
func (u *Usecase) PurgeStaleDrafts(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		retention = DefaultDraftRetention
	}
	n, err := u.store.DeleteSavedBefore(ctx, u.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		u.log.Info("purged stale drafts", zap.Int64("count", n))
	}
	return n, nil
}

// mutate applies fn to a fresh copy of the transaction and writes it back,
// retrying when another writer got there first.
func (u *Usecase) mutate(ctx context.Context, tenantID, id string, fn func(*Transaction) error) (*Transaction, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		tx, err := u.store.FetchByID(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if err := fn(tx); err != nil {
			return nil, err
		}
		tx.UpdatedAt = u.now()

		out, err := u.store.Update(ctx, tenantID, *tx)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
		u.log.Debug("transaction write lost version race, retrying",
			zap.String("tenant_id", tenantID),
			zap.String("transaction_id", id),
			zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

func (tx *Transaction) findOrder(reference string) (*order.Order, error) {
	for i := range tx.Products {
		if tx.Products[i].Reference == reference {
			return &tx.Products[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrOrderMissing, reference)
}
