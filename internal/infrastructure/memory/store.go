// Package memory keeps accounts and payments in process. It backs STORE_DRIVER=memory
// and the service tests. One mutex guards both maps, so every operation is atomic with
// respect to the others.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/resumeforge/api/internal/domain/entity"
	repo "github.com/resumeforge/api/internal/domain/repository"
)

type Store struct {
	mu       sync.Mutex
	users    map[entity.UserID]*entity.User
	payments map[string]*entity.Payment // by order id
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[entity.UserID]*entity.User),
		payments: make(map[string]*entity.Payment),
		now:      time.Now,
	}
}

// Users returns the account repository view of the store.
func (s *Store) Users() repo.UserRepository { return userRepo{s} }

// Payments returns the payment repository view of the store.
func (s *Store) Payments() repo.PaymentRepository { return paymentRepo{s} }

func cloneUser(u *entity.User) *entity.User {
	c := *u
	if u.VerificationToken != nil {
		t := *u.VerificationToken
		c.VerificationToken = &t
	}
	if u.VerificationExpires != nil {
		e := *u.VerificationExpires
		c.VerificationExpires = &e
	}
	return &c
}

func clonePayment(p *entity.Payment) *entity.Payment {
	c := *p
	if p.PaymentID != nil {
		v := *p.PaymentID
		c.PaymentID = &v
	}
	if p.Signature != nil {
		v := *p.Signature
		c.Signature = &v
	}
	return &c
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *entity.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	now := s.now().UTC()
	u.ID = entity.UserID(uuid.NewString())
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (r userRepo) GetByID(_ context.Context, id entity.UserID) (*entity.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r userRepo) GetByVerificationToken(_ context.Context, token string) (*entity.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.findByToken(token); u != nil {
		return cloneUser(u), nil
	}
	return nil, repo.ErrNotFound
}

func (s *Store) findByToken(token string) *entity.User {
	if token == "" {
		return nil
	}
	for _, u := range s.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return u
		}
	}
	return nil
}

func (r userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r userRepo) ReplaceVerificationToken(_ context.Context, id entity.UserID, token string, expires time.Time) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.EmailVerified {
		return repo.ErrNotFound
	}
	exp := expires
	u.VerificationToken, u.VerificationExpires = &token, &exp
	u.UpdatedAt = s.now().UTC()
	return nil
}

func (r userRepo) ConsumeVerificationToken(_ context.Context, token string, now time.Time) (entity.UserID, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.findByToken(token)
	if u == nil || u.EmailVerified || u.VerificationExpires == nil || u.VerificationExpires.Before(now) {
		return "", repo.ErrNotFound
	}
	u.EmailVerified = true
	u.VerificationToken, u.VerificationExpires = nil, nil
	u.UpdatedAt = s.now().UTC()
	return u.ID, nil
}

func (r userRepo) UpdateProfile(_ context.Context, u *entity.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	cur.Name = u.Name
	cur.ProfileImageURL = u.ProfileImageURL
	cur.UpdatedAt = s.now().UTC()
	u.UpdatedAt = cur.UpdatedAt
	return nil
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(_ context.Context, p *entity.Payment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.OrderID]; ok {
		return repo.ErrDuplicate
	}
	now := s.now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = now, now
	s.payments[p.OrderID] = clonePayment(p)
	return nil
}

func (r paymentRepo) GetByOrderID(_ context.Context, orderID string) (*entity.Payment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[orderID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return clonePayment(p), nil
}

func (r paymentRepo) ListByUser(_ context.Context, userID entity.UserID) ([]*entity.Payment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Payment, 0)
	for _, p := range s.payments {
		if p.UserID == userID {
			out = append(out, clonePayment(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r paymentRepo) MarkPaidAndUpgrade(_ context.Context, orderID, paymentID, signature string) (*entity.Payment, bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[orderID]
	if !ok {
		return nil, false, repo.ErrNotFound
	}
	if p.IsPaid() {
		return clonePayment(p), false, nil
	}
	u, ok := s.users[p.UserID]
	if !ok {
		return nil, false, repo.ErrNotFound
	}
	now := s.now().UTC()
	pid, sig := paymentID, signature
	p.PaymentID, p.Signature = &pid, &sig
	p.Status = entity.PaymentPaid
	p.UpdatedAt = now
	u.SubscriptionPlan = p.PlanType
	u.UpdatedAt = now
	return clonePayment(p), true, nil
}
