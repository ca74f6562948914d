package application

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/resumeforge/api/config"
	"github.com/resumeforge/api/internal/infrastructure/memory"
	"github.com/resumeforge/api/pkg/helpers"
	"github.com/resumeforge/api/pkg/payment"
)

type verificationMail struct {
	to, name, link string
	expiresAt      time.Time
}

type fakeNotifier struct {
	mu        sync.Mutex
	verify    []verificationMail
	upgrades  []string
	verifyErr error
}

func (f *fakeNotifier) SendVerificationEmail(_ context.Context, to, name, link string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return f.verifyErr
	}
	f.verify = append(f.verify, verificationMail{to, name, link, expiresAt})
	return nil
}

func (f *fakeNotifier) SendPlanUpgraded(_ context.Context, to, _, plan string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upgrades = append(f.upgrades, to+":"+plan)
	return nil
}

// lastToken extracts the token query value from the most recent verification link.
func (f *fakeNotifier) lastToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.verify) == 0 {
		return ""
	}
	link := f.verify[len(f.verify)-1].link
	return link[strings.Index(link, "token=")+len("token="):]
}

type fakeGateway struct {
	secret []byte
	err    error
	calls  int
	next   int
}

func newFakeGateway() *fakeGateway { return &fakeGateway{secret: []byte("rzp_test_secret")} }

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	g.next++
	return "order_" + strings.Repeat("A", g.next), nil
}

func (g *fakeGateway) ExpectedSignature(orderID, paymentID string) string {
	if len(g.secret) == 0 {
		return ""
	}
	return payment.Sign(g.secret, orderID, paymentID)
}

type fakeIndexer struct {
	mu   sync.Mutex
	docs map[string]UserDocument
	err  error
}

func (f *fakeIndexer) Index(_ context.Context, d UserDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.docs == nil {
		f.docs = map[string]UserDocument{}
	}
	f.docs[d.ID] = d
	return nil
}

func (f *fakeIndexer) Search(_ context.Context, q string, size int) ([]UserDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []UserDocument{}
	for _, d := range f.docs {
		if strings.Contains(d.Email, q) || strings.Contains(d.Name, q) {
			out = append(out, d)
		}
		if len(out) == size {
			break
		}
	}
	return out, nil
}

type fakeUploader struct {
	paths []string
	body  string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(r)
	f.body = string(b)
	f.paths = append(f.paths, objectPath)
	return "https://storage.googleapis.com/bucket/" + objectPath, nil
}

var errBoom = errors.New("boom")

type harness struct {
	store    *memory.Store
	notifier *fakeNotifier
	gateway  *fakeGateway
	index    *fakeIndexer
	jwt      *helpers.JWTManager
	users    *UserService
	payments *PaymentService
	clock    time.Time
}

func newHarness() *harness {
	cfg := &config.Config{VerifyEmailURL: "http://localhost:8080/api/auth/verify-email", NotifyTimeout: time.Second}
	h := &harness{
		store:    memory.NewStore(),
		notifier: &fakeNotifier{},
		gateway:  newFakeGateway(),
		index:    &fakeIndexer{},
		clock:    time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	h.jwt = helpers.NewJWTManager("test-secret", time.Hour).WithClock(func() time.Time { return h.clock })
	logger := helpers.NewDiscardLogger()

	h.users = NewUserService(h.store.Users(), h.jwt, h.notifier, cfg, logger)
	h.users.Index = h.index
	h.users.now = func() time.Time { return h.clock }

	h.payments = NewPaymentService(h.store.Payments(), h.store.Users(), h.gateway, cfg, logger)
	h.payments.Notifier = h.notifier
	h.payments.Index = h.index
	return h
}

// verifiedUser registers and verifies an account, returning its login result.
func (h *harness) verifiedUser(email string) *LoginResult {
	ctx := context.Background()
	if _, err := h.users.Register(ctx, RegisterInput{Name: "Test", Email: email, Password: "secret1"}); err != nil {
		panic(err)
	}
	if err := h.users.VerifyEmail(ctx, h.notifier.lastToken()); err != nil {
		panic(err)
	}
	res, err := h.users.Login(ctx, email, "secret1")
	if err != nil {
		panic(err)
	}
	return res
}
