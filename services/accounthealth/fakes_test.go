package accounthealth

import (
	"context"
	"sync"
	"time"

	"adspace/models"
	"adspace/services/notification"
	"adspace/services/processor"

	"github.com/stretchr/testify/mock"
)

type fakeAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*models.ConnectedAccount
	// beforeCAS runs once against the stored account before the next compare-and-set.
	beforeCAS func(a *models.ConnectedAccount)
}

func newFakeAccountStore(accounts ...*models.ConnectedAccount) *fakeAccountStore {
	s := &fakeAccountStore{accounts: map[string]*models.ConnectedAccount{}}
	for _, a := range accounts {
		c := *a
		s.accounts[a.ID] = &c
	}
	return s
}

func (s *fakeAccountStore) get(id string) models.ConnectedAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.accounts[id]
}

func (s *fakeAccountStore) GetAccountByStripeID(_ context.Context, stripeAccountID string) (*models.ConnectedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.StripeAccountID == stripeAccountID {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (s *fakeAccountStore) ListLinkedAccounts(_ context.Context) ([]models.ConnectedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ConnectedAccount
	for _, a := range s.accounts {
		if a.StripeAccountID != "" {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeAccountStore) CompareAndSetHealth(_ context.Context, id string, guard models.AccountHealthGuard, update models.AccountHealthUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return false, nil
	}
	if s.beforeCAS != nil {
		s.beforeCAS(a)
		s.beforeCAS = nil
	}
	if !guard.Matches(a) {
		return false, nil
	}
	update.ApplyTo(a)
	return true, nil
}

func (s *fakeAccountStore) MarkDisconnectNotified(_ context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accounts[id]
	if a.DisconnectNotifiedAt != nil {
		return false, nil
	}
	a.DisconnectNotifiedAt = &at
	return true, nil
}

func (s *fakeAccountStore) MarkSpacesSuspended(_ context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accounts[id]
	if a.SpacesSuspendedAt != nil {
		return false, nil
	}
	a.SpacesSuspendedAt = &at
	return true, nil
}

type fakeSpaceStore struct {
	mu     sync.Mutex
	spaces []*models.Space
}

func (s *fakeSpaceStore) SuspendActiveSpaces(_ context.Context, ownerID, reason string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, sp := range s.spaces {
		if sp.OwnerID == ownerID && sp.Status == models.SpaceStatusActive {
			sp.Status = models.SpaceStatusSuspended
			sp.SuspendedAt = &at
			sp.SuspensionReason = reason
			n++
		}
	}
	return n, nil
}

func (s *fakeSpaceStore) statuses() map[string]models.SpaceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]models.SpaceStatus{}
	for _, sp := range s.spaces {
		out[sp.ID] = sp.Status
	}
	return out
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) RetrieveAccount(ctx context.Context, accountID string) (*processor.AccountSnapshot, error) {
	args := m.Called(ctx, accountID)
	if snap := args.Get(0); snap != nil {
		return snap.(*processor.AccountSnapshot), args.Error(1)
	}
	return nil, args.Error(1)
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

func (n *recordingNotifier) count(kind models.NotificationType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, m := range n.messages {
		if m.Type == kind {
			total++
		}
	}
	return total
}
