package verification

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Chirper/app/models"
	"github.com/ManuelReschke/Chirper/app/repository"
	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
	"github.com/ManuelReschke/Chirper/internal/pkg/events"
	"github.com/ManuelReschke/Chirper/internal/pkg/mail"
	"github.com/ManuelReschke/Chirper/internal/pkg/security"
	"github.com/ManuelReschke/Chirper/internal/pkg/testutil"
)

type outbox struct{ sent []mail.Message }

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.sent = append(o.sent, msg)
	return nil
}

type recorder struct{ events []events.Event }

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.events = append(r.events, e)
	return nil
}

type fixture struct {
	svc   *Service
	repos *repository.Repositories
	box   *outbox
	rec   *recorder
	now   time.Time
	user  *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repos: repository.NewRepositories(testutil.NewDB(t)),
		box:   &outbox{},
		rec:   &recorder{},
		now:   time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	signer, err := security.NewSigner("test-key")
	require.NoError(t, err)
	f.svc = NewService(f.repos.User, signer, f.box, f.rec, "http://chirper.test/", func() time.Time { return f.now })

	f.user, err = models.NewUser("Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, f.repos.User.Create(f.user))
	return f
}

// checkLink validates a link the way the HTTP handler does.
func (f *fixture) checkLink(t *testing.T, link string) (string, bool, bool) {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	valid, fresh := f.svc.CheckSignature(u.Path, u.Query().Get("expires"), u.Query().Get("signature"))
	return u.Path, valid, fresh
}

func TestSendVerificationMailsSignedLink(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.SendVerification(context.Background(), f.user))
	require.Len(t, f.box.sent, 1)
	assert.Equal(t, "alice@example.com", f.box.sent[0].To)

	link := f.svc.URL(f.user)
	assert.Contains(t, link, "http://chirper.test/email/verify/")
	path, valid, fresh := f.checkLink(t, link)
	assert.Equal(t, Path(f.user.ID, f.user.EmailHash()), path)
	assert.True(t, valid)
	assert.True(t, fresh)
}

func TestSendVerificationSkipsVerifiedUsers(t *testing.T) {
	f := newFixture(t)
	f.user.EmailVerifiedAt = &f.now

	require.NoError(t, f.svc.SendVerification(context.Background(), f.user))
	assert.Empty(t, f.box.sent)
}

func TestLinkExpires(t *testing.T) {
	f := newFixture(t)
	link := f.svc.URL(f.user)

	f.now = f.now.Add(LinkLifetime)
	_, valid, fresh := f.checkLink(t, link)
	assert.True(t, valid)
	assert.False(t, fresh)
}

func TestVerifyMarksUserOnceAndPublishesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	already, err := f.svc.Verify(ctx, f.user.ID, f.user.EmailHash(), true, true)
	require.NoError(t, err)
	assert.False(t, already)

	got, err := f.repos.User.GetByID(f.user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified())
	require.Len(t, f.rec.events, 1)
	assert.Equal(t, events.TypeEmailVerified, f.rec.events[0].Type)
	assert.Equal(t, f.user.ID, f.rec.events[0].UserID)

	already, err = f.svc.Verify(ctx, f.user.ID, f.user.EmailHash(), true, true)
	require.NoError(t, err)
	assert.True(t, already)
	assert.Len(t, f.rec.events, 1)
}

func TestVerifyRejectsBadLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hash := f.user.EmailHash()

	tests := []struct {
		name   string
		userID uint
		hash   string
		valid  bool
		fresh  bool
	}{
		{"bad signature", f.user.ID, hash, false, true},
		{"expired", f.user.ID, hash, true, false},
		{"wrong hash", f.user.ID, models.HashEmail("someone@else.com"), true, true},
		{"unknown user", f.user.ID + 100, hash, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Verify(ctx, tt.userID, tt.hash, tt.valid, tt.fresh)
			assert.True(t, apperror.Is(err, apperror.KindInvalidVerificationLink))
		})
	}

	got, err := f.repos.User.GetByID(f.user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsVerified())
	assert.Empty(t, f.rec.events)
}

func TestVerifyWithStaleEmailFails(t *testing.T) {
	f := newFixture(t)
	link := f.svc.URL(f.user)
	staleHash := f.user.EmailHash()

	f.user.Email = "alice.new@example.com"
	require.NoError(t, f.repos.User.Update(f.user))

	_, valid, fresh := f.checkLink(t, link)
	require.True(t, valid)
	require.True(t, fresh)

	_, err := f.svc.Verify(context.Background(), f.user.ID, staleHash, valid, fresh)
	assert.True(t, apperror.Is(err, apperror.KindInvalidVerificationLink))
}
