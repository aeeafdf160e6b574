package payout

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"adspace/models"
	"adspace/services/notification"
	"adspace/services/processor"

	"github.com/stretchr/testify/mock"
)

type fakeBookingStore struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	// beforeGet runs against the stored booking on every GetBookingByID.
	beforeGet func(b *models.Booking)
	// beforeUpdate runs against the stored booking on every UpdatePayout, ahead of the guard check.
	// A non-nil error is returned without applying the update.
	beforeUpdate func(b *models.Booking, update models.BookingPayoutUpdate) error
}

func newFakeBookingStore(bookings ...models.Booking) *fakeBookingStore {
	s := &fakeBookingStore{bookings: map[string]*models.Booking{}}
	for i := range bookings {
		b := clone(&bookings[i])
		s.bookings[b.ID] = &b
	}
	return s
}

func clone(b *models.Booking) models.Booking {
	c := *b
	c.VerificationSchedule = slices.Clone(b.VerificationSchedule)
	return c
}

func (s *fakeBookingStore) get(id string) models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.bookings[id])
}

func (s *fakeBookingStore) filter(keep func(b *models.Booking) bool) []models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, clone(b))
		}
	}
	return out
}

func (s *fakeBookingStore) FindProofsAwaitingApproval(_ context.Context, uploadedBefore time.Time) ([]models.Booking, error) {
	return s.filter(func(b *models.Booking) bool {
		return b.ProofStatus != nil && *b.ProofStatus == models.ProofStatusPending &&
			b.ProofUploadedAt != nil && b.ProofUploadedAt.Before(uploadedBefore) &&
			(b.Status == models.BookingStatusConfirmed || b.Status == models.BookingStatusActive)
	}), nil
}

func (s *fakeBookingStore) FindCheckpointsAwaitingApproval(_ context.Context, uploadedBefore time.Time) ([]models.Booking, error) {
	return s.filter(func(b *models.Booking) bool {
		if b.Status == models.BookingStatusDisputed {
			return false
		}
		for _, cp := range b.VerificationSchedule {
			if cp.Completed && cp.ApprovedAt == nil && cp.UploadedAt != nil && cp.UploadedAt.Before(uploadedBefore) {
				return true
			}
		}
		return false
	}), nil
}

func (s *fakeBookingStore) FindPendingPayouts(_ context.Context, maxAttempts int) ([]models.Booking, error) {
	return s.filter(func(b *models.Booking) bool {
		return b.PayoutStatus == models.PayoutStatusPending && b.PayoutAttempts < maxAttempts
	}), nil
}

func (s *fakeBookingStore) FindPartiallyPaid(_ context.Context) ([]models.Booking, error) {
	return s.filter(func(b *models.Booking) bool {
		return b.PayoutStatus == models.PayoutStatusPartiallyPaid
	}), nil
}

func (s *fakeBookingStore) FindNeedingReview(_ context.Context) ([]models.Booking, error) {
	return s.filter(func(b *models.Booking) bool { return b.NeedsReview }), nil
}

func (s *fakeBookingStore) GetBookingByID(_ context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	if s.beforeGet != nil {
		s.beforeGet(b)
	}
	c := clone(b)
	return &c, nil
}

func (s *fakeBookingStore) UpdatePayout(_ context.Context, id string, guard models.PayoutGuard, update models.BookingPayoutUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if ok && s.beforeUpdate != nil {
		if err := s.beforeUpdate(b, update); err != nil {
			return false, err
		}
	}
	if !ok || !guard.Matches(b) {
		return false, nil
	}
	update.ApplyTo(b)
	return true, nil
}

func (s *fakeBookingStore) ApproveCheckpoint(_ context.Context, id string, index int, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bookings[id].VerificationSchedule {
		cp := &s.bookings[id].VerificationSchedule[i]
		if cp.Index == index && cp.Completed && cp.ApprovedAt == nil {
			cp.ApprovedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeBookingStore) MarkCheckpointPaid(_ context.Context, id string, index int, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bookings[id].VerificationSchedule {
		cp := &s.bookings[id].VerificationSchedule[i]
		if cp.Index == index && !cp.PayoutProcessed {
			cp.PayoutProcessed = true
			cp.PayoutAt = &at
			return true, nil
		}
	}
	return false, nil
}

type fakeAccounts map[string]*models.ConnectedAccount

func (f fakeAccounts) GetAccountByOwnerID(_ context.Context, ownerID string) (*models.ConnectedAccount, error) {
	return f[ownerID], nil
}

// flakyAccounts fails the first lookup and serves the wrapped accounts afterwards.
type flakyAccounts struct {
	fakeAccounts
	mu    sync.Mutex
	calls int
}

func (f *flakyAccounts) GetAccountByOwnerID(ctx context.Context, ownerID string) (*models.ConnectedAccount, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()
	if first {
		return nil, errors.New("connection reset")
	}
	return f.fakeAccounts.GetAccountByOwnerID(ctx, ownerID)
}

type fakeSpaces map[string]*models.Space

func (f fakeSpaces) GetSpaceByID(_ context.Context, id string) (*models.Space, error) {
	return f[id], nil
}

type mockTransferer struct {
	mock.Mock
}

func (m *mockTransferer) HasAvailableBalance(ctx context.Context, amount float64, currency string) (bool, error) {
	args := m.Called(ctx, amount, currency)
	return args.Bool(0), args.Error(1)
}

func (m *mockTransferer) Transfer(ctx context.Context, req processor.TransferRequest) (*processor.TransferResult, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*processor.TransferResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransferer) idempotencyKeys() []string {
	var keys []string
	for _, c := range m.Calls {
		if c.Method == "Transfer" {
			keys = append(keys, c.Arguments.Get(1).(processor.TransferRequest).IdempotencyKey)
		}
	}
	return keys
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Notify(_ context.Context, msg notification.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) count(userID string, kind models.NotificationType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, m := range n.messages {
		if m.UserID == userID && m.Type == kind {
			total++
		}
	}
	return total
}
