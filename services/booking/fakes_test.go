package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	bookingRepo "taskora/database/repository/booking"
	catalogRepo "taskora/database/repository/catalog"
	providerRepo "taskora/database/repository/provider"
	walletRepo "taskora/database/repository/wallet"
	"taskora/models"
)

// fakeBookingRepo is an in-memory BookingRepository with the same overlap and
// compare-and-swap semantics as the Mongo implementation.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	// casFail injects a failure for a specific booking id.
	casFail map[string]error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: map[string]*models.Booking{},
		casFail:  map[string]error{},
	}
}

func (r *fakeBookingRepo) put(b models.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := b
	r.bookings[b.ID] = &cp
}

func (r *fakeBookingRepo) GetByID(id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) ActiveByProviderDate(providerID, date string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeLocked(providerID, date), nil
}

func (r *fakeBookingRepo) activeLocked(providerID, date string) []models.Booking {
	blocking := map[models.BookingStatus]bool{}
	for _, s := range models.BlockingStatuses() {
		blocking[s] = true
	}
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ProviderID == providerID && b.Date == date && blocking[b.Status] {
			out = append(out, *b)
		}
	}
	return out
}

func (r *fakeBookingRepo) InsertIfFree(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.activeLocked(b.ProviderID, b.Date) {
		if existing.Overlaps(b.Start, b.End) {
			return bookingRepo.ErrIntervalTaken
		}
	}
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) CompareAndSwapStatus(ctx context.Context, id string, from, to models.BookingStatus, fields bookingRepo.StatusFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.casFail[id]; err != nil {
		return err
	}
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	if b.Status != from {
		return bookingRepo.ErrStatusChanged
	}
	b.Status = to
	if fields.PaymentStatus != nil {
		b.PaymentStatus = *fields.PaymentStatus
	}
	if fields.RefundDue != nil {
		b.RefundDue = *fields.RefundDue
	}
	if fields.Reviewed != nil {
		b.Reviewed = *fields.Reviewed
	}
	return nil
}

func (r *fakeBookingRepo) FindUnrefunded() ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		terminal := b.Status == models.BookingCancelled || b.Status == models.BookingExpired
		if terminal && b.PaymentStatus == models.PaymentPaid && b.RefundDue > 0 {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBookingRepo) MarkRefunded(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	if b.PaymentStatus != models.PaymentPaid {
		return bookingRepo.ErrStatusChanged
	}
	b.PaymentStatus = models.PaymentRefunded
	return nil
}

func (r *fakeBookingRepo) FindStale(statuses []models.BookingStatus, beforeDate string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match := map[models.BookingStatus]bool{}
	for _, s := range statuses {
		match[s] = true
	}
	var out []models.Booking
	for _, b := range r.bookings {
		if match[b.Status] && b.Date < beforeDate {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBookingRepo) SetSettlement(ctx context.Context, id string, commission, providerAmount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.Commission = commission
	b.ProviderAmount = providerAmount
	return nil
}

func (r *fakeBookingRepo) MarkReviewed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	if b.Reviewed {
		return bookingRepo.ErrStatusChanged
	}
	b.Reviewed = true
	return nil
}

// fakeProviderRepo is an in-memory ProviderRepository.
type fakeProviderRepo struct {
	mu        sync.Mutex
	providers map[string]*models.Provider
}

func newFakeProviderRepo() *fakeProviderRepo {
	return &fakeProviderRepo{providers: map[string]*models.Provider{}}
}

func (r *fakeProviderRepo) put(p models.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := p
	r.providers[p.ID] = &cp
}

func (r *fakeProviderRepo) GetByID(id string) (*models.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, providerRepo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProviderRepo) SearchNearby(lng, lat, radiusKm float64) ([]models.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Provider
	for _, p := range r.providers {
		if DistanceKm(lat, lng, p.Profile.LocationGeo) <= radiusKm {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeProviderRepo) UpdateAvailability(ctx context.Context, providerID string, av models.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[providerID]
	if !ok {
		return providerRepo.ErrNotFound
	}
	p.Availability = av
	return nil
}

func (r *fakeProviderRepo) AdjustRating(ctx context.Context, providerID string, delta, floor, ceil float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[providerID]
	if !ok {
		return providerRepo.ErrNotFound
	}
	p.Profile.Rating += delta
	if p.Profile.Rating < floor {
		p.Profile.Rating = floor
	}
	if p.Profile.Rating > ceil {
		p.Profile.Rating = ceil
	}
	return nil
}

func (r *fakeProviderRepo) CreditEarnings(ctx context.Context, providerID string, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[providerID]
	if !ok {
		return providerRepo.ErrNotFound
	}
	p.TotalEarnings += amount
	p.CompletedBookings++
	return nil
}

func (r *fakeProviderRepo) ApplyReview(ctx context.Context, providerID string, rating float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[providerID]
	if !ok {
		return providerRepo.ErrNotFound
	}
	total := p.Profile.Rating*float64(p.ReviewCount) + rating
	p.ReviewCount++
	p.Profile.Rating = total / float64(p.ReviewCount)
	return nil
}

func (r *fakeProviderRepo) PruneExpiredAvailability(ctx context.Context, beforeDate string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var touched int64
	for _, p := range r.providers {
		var overrides []models.DateOverride
		for _, ov := range p.Availability.DateOverrides {
			if ov.Date >= beforeDate {
				overrides = append(overrides, ov)
			}
		}
		var leaves []models.LeavePeriod
		for _, lp := range p.Availability.LeavePeriods {
			if lp.To >= beforeDate {
				leaves = append(leaves, lp)
			}
		}
		if len(overrides) != len(p.Availability.DateOverrides) || len(leaves) != len(p.Availability.LeavePeriods) {
			touched++
		}
		p.Availability.DateOverrides = overrides
		p.Availability.LeavePeriods = leaves
	}
	return touched, nil
}

// fakeWalletRepo is an in-memory WalletRepository with the same id dedupe as
// the Mongo implementation.
type fakeWalletRepo struct {
	mu       sync.Mutex
	balances map[string]float64
	txns     []models.WalletTransaction
	applied  map[string]bool
	// applyErr makes every mutation fail until cleared.
	applyErr error
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{
		balances: map[string]float64{},
		applied:  map[string]bool{},
	}
}

func (r *fakeWalletRepo) Get(ownerID string) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &models.Wallet{OwnerID: ownerID, Balance: r.balances[ownerID]}, nil
}

func (r *fakeWalletRepo) ApplyTransaction(ctx context.Context, txn models.WalletTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyErr != nil {
		return r.applyErr
	}
	if r.applied[txn.ID] {
		return walletRepo.ErrDuplicateTransaction
	}
	if txn.Kind == models.TxnDebit {
		if r.balances[txn.OwnerID] < txn.Amount {
			return walletRepo.ErrInsufficientFunds
		}
		r.balances[txn.OwnerID] -= txn.Amount
	} else {
		r.balances[txn.OwnerID] += txn.Amount
	}
	r.applied[txn.ID] = true
	r.txns = append(r.txns, txn)
	return nil
}

func (r *fakeWalletRepo) setApplyErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyErr = err
}

func (r *fakeWalletRepo) History(ownerID string, limit int64) ([]models.WalletTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WalletTransaction
	for i := len(r.txns) - 1; i >= 0; i-- {
		if r.txns[i].OwnerID != ownerID {
			continue
		}
		out = append(out, r.txns[i])
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeWalletRepo) balance(ownerID string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[ownerID]
}

// fakeCatalogRepo is an in-memory CatalogRepository.
type fakeCatalogRepo struct {
	mu         sync.Mutex
	services   map[string]*models.Service
	categories map[string]*models.Category
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		services:   map[string]*models.Service{},
		categories: map[string]*models.Category{},
	}
}

func (r *fakeCatalogRepo) putService(s models.Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := s
	r.services[s.ID] = &cp
}

func (r *fakeCatalogRepo) putCategory(c models.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := c
	r.categories[c.ID] = &cp
}

func (r *fakeCatalogRepo) GetService(id string) (*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.services[id]
	if !ok {
		return nil, catalogRepo.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeCatalogRepo) GetCategory(id string) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, catalogRepo.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCatalogRepo) ActiveServicesByCategory(categoryID string) ([]models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Service
	for _, s := range r.services {
		if s.CategoryID == categoryID && s.Active {
			out = append(out, *s)
		}
	}
	return out, nil
}

// recordedEmail is one notification captured by the fake notifier.
type recordedEmail struct {
	Recipient string
	Subject   string
	Body      string
}

// fakeNotifier records notifications instead of delivering them.
type fakeNotifier struct {
	mu   sync.Mutex
	user []recordedEmail
	prov []recordedEmail
	fail bool
}

func (n *fakeNotifier) SendUserEmail(ctx context.Context, userID, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return context.DeadlineExceeded
	}
	n.user = append(n.user, recordedEmail{Recipient: userID, Subject: subject, Body: body})
	return nil
}

func (n *fakeNotifier) SendProviderEmail(ctx context.Context, providerID, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return context.DeadlineExceeded
	}
	n.prov = append(n.prov, recordedEmail{Recipient: providerID, Subject: subject, Body: body})
	return nil
}

func (n *fakeNotifier) lastUserEmail() (recordedEmail, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.user) == 0 {
		return recordedEmail{}, false
	}
	return n.user[len(n.user)-1], true
}

// testEnv bundles the engine with its fakes.
type testEnv struct {
	engine   *DefaultBookingEngine
	bookings *fakeBookingRepo
	provs    *fakeProviderRepo
	wallets  *fakeWalletRepo
	catalog  *fakeCatalogRepo
	notify   *fakeNotifier
	now      time.Time
}

// newTestEnv builds an engine over fresh fakes with the clock pinned.
func newTestEnv(now time.Time) *testEnv {
	env := &testEnv{
		bookings: newFakeBookingRepo(),
		provs:    newFakeProviderRepo(),
		wallets:  newFakeWalletRepo(),
		catalog:  newFakeCatalogRepo(),
		notify:   &fakeNotifier{},
		now:      now,
	}
	env.engine = &DefaultBookingEngine{
		BookingRepo:  env.bookings,
		ProviderRepo: env.provs,
		WalletRepo:   env.wallets,
		CatalogRepo:  env.catalog,
		Notifier:     env.notify,
		Clock:        func() time.Time { return now },
	}
	return env
}
