package services_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"aralis/internal/metrics"
	"aralis/internal/models"
	"aralis/internal/repositories"
	"aralis/internal/services"
	"aralis/pkg/errorbank"
)

const (
	currentPassword = "Sup3r$ecret"
	newPassword     = "N3w#Passw0rd"
)

type resetFixture struct {
	service  *services.PasswordResetService
	users    *repositories.MockUserRepository
	tokens   *repositories.MockPasswordResetRepository
	notifier *mockNotifier
	user     *models.User
	now      time.Time
	issued   []string
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	users := repositories.NewMockUserRepository()
	tokens := repositories.NewMockPasswordResetRepository(users)

	hash, err := services.HashPassword(currentPassword)
	require.NoError(t, err)
	user := &models.User{Name: "Ana", Email: "ana@example.com", Password: hash}
	require.NoError(t, users.Create(user))

	f := &resetFixture{
		users:    users,
		tokens:   tokens,
		notifier: new(mockNotifier),
		user:     user,
		now:      time.Date(2026, time.May, 2, 9, 0, 0, 0, time.UTC),
	}
	f.service = services.NewPasswordResetService(users, tokens, f.notifier, time.Hour, metrics.NewUnregistered(), zap.NewNop())
	f.service.SetClock(func() time.Time { return f.now })

	f.notifier.On("PasswordReset", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { f.issued = append(f.issued, args.String(1)) }).
		Return(nil)
	f.notifier.On("PasswordChanged", mock.Anything).Return(nil)
	return f
}

func (f *resetFixture) issue(t *testing.T) string {
	t.Helper()
	require.NoError(t, f.service.Issue(f.user.Email))
	require.NotEmpty(t, f.issued)
	return f.issued[len(f.issued)-1]
}

func reason(err error) any {
	return errorbank.From(err).Details()["reason"]
}

func TestIssue_StoresOneFreshToken(t *testing.T) {
	f := newResetFixture(t)
	token := f.issue(t)

	assert.Len(t, token, 64)
	assert.Regexp(t, `^[0-9a-f]{64}$`, token)

	stored, err := f.tokens.ListByEmail(f.user.Email)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].Used)
	assert.Equal(t, f.now.Add(time.Hour), stored[0].ExpiresAt)
}

func TestIssue_NormalisesEmail(t *testing.T) {
	f := newResetFixture(t)
	require.NoError(t, f.service.Issue("  ANA@Example.com "))
	assert.Len(t, f.issued, 1)
}

func TestIssue_UnknownEmailIsSilent(t *testing.T) {
	f := newResetFixture(t)

	require.NoError(t, f.service.Issue("nobody@example.com"))
	f.notifier.AssertNotCalled(t, "PasswordReset", mock.Anything, mock.Anything)
	stored, err := f.tokens.ListByEmail("nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestIssue_MailFailureKeepsToken(t *testing.T) {
	f := newResetFixture(t)
	f.notifier.ExpectedCalls = nil
	f.notifier.On("PasswordReset", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { f.issued = append(f.issued, args.String(1)) }).
		Return(errors.New("smtp unavailable"))

	err := f.service.Issue(f.user.Email)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrResetMailFailed)

	_, err = f.service.Validate(f.issued[0])
	assert.NoError(t, err)
}

func TestIssue_SecondTokenInvalidatesFirst(t *testing.T) {
	f := newResetFixture(t)
	first := f.issue(t)
	second := f.issue(t)
	require.NotEqual(t, first, second)

	err := f.service.Reset(first, newPassword)
	assert.ErrorIs(t, err, services.ErrTokenInvalid)
	assert.Equal(t, "invalid", reason(err))

	_, err = f.service.Validate(second)
	assert.NoError(t, err)
}

// slowResetStore delays every write to widen the window between concurrent issues.
type slowResetStore struct {
	*repositories.MockPasswordResetRepository
}

func (s slowResetStore) Create(token *models.PasswordResetToken) error {
	time.Sleep(2 * time.Millisecond)
	return s.MockPasswordResetRepository.Create(token)
}

func (s slowResetStore) Replace(token *models.PasswordResetToken) error {
	time.Sleep(2 * time.Millisecond)
	return s.MockPasswordResetRepository.Replace(token)
}

func TestIssue_ConcurrentRequestsLeaveOneUsableToken(t *testing.T) {
	users := repositories.NewMockUserRepository()
	hash, err := services.HashPassword(currentPassword)
	require.NoError(t, err)
	require.NoError(t, users.Create(&models.User{Name: "Ana", Email: "ana@example.com", Password: hash}))

	tokens := repositories.NewMockPasswordResetRepository(users)
	notifier := new(mockNotifier)
	notifier.On("PasswordReset", mock.Anything, mock.Anything).Return(nil)
	now := time.Date(2026, time.May, 2, 9, 0, 0, 0, time.UTC)
	svc := services.NewPasswordResetService(users, slowResetStore{tokens}, notifier, time.Hour, metrics.NewUnregistered(), zap.NewNop())
	svc.SetClock(func() time.Time { return now })

	const requests = 8
	var wg sync.WaitGroup
	errs := make(chan error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.Issue("ana@example.com")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	issued, err := tokens.ListByEmail("ana@example.com")
	require.NoError(t, err)
	usable := 0
	for i := range issued {
		if issued[i].Usable(now) {
			usable++
		}
	}
	assert.Equal(t, 1, usable)
	notifier.AssertNumberOfCalls(t, "PasswordReset", requests)
}

func TestReset_FullLifecycle(t *testing.T) {
	f := newResetFixture(t)
	token := f.issue(t)

	record, err := f.service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, f.user.Email, record.Email)

	f.now = f.now.Add(30 * time.Minute)
	require.NoError(t, f.service.Reset(token, newPassword))

	stored, err := f.tokens.FindByToken(token)
	require.NoError(t, err)
	assert.True(t, stored.Used)
	require.NotNil(t, stored.UsedAt)
	assert.Equal(t, f.now, *stored.UsedAt)

	user, err := f.users.GetByID(f.user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(newPassword)))
	f.notifier.AssertCalled(t, "PasswordChanged", mock.Anything)

	err = f.service.Reset(token, "An0ther!Pass")
	assert.ErrorIs(t, err, services.ErrTokenUsed)
	assert.Equal(t, "used", reason(err))
}

func TestReset_ExpiredToken(t *testing.T) {
	f := newResetFixture(t)
	token := f.issue(t)

	f.now = f.now.Add(time.Hour + time.Minute)
	err := f.service.Reset(token, newPassword)
	assert.ErrorIs(t, err, services.ErrTokenExpired)
	assert.Equal(t, fiberBadRequest, errorbank.From(err).StatusCode())

	_, err = f.service.Validate(token)
	assert.ErrorIs(t, err, services.ErrTokenExpired)

	stored, err := f.tokens.FindByToken(token)
	require.NoError(t, err)
	assert.False(t, stored.Used)
}

func TestReset_ExpiresExactlyAtDeadline(t *testing.T) {
	f := newResetFixture(t)
	token := f.issue(t)

	f.now = f.now.Add(time.Hour)
	_, err := f.service.Validate(token)
	assert.ErrorIs(t, err, services.ErrTokenExpired)
}

func TestReset_UnchangedPasswordLeavesTokenUsable(t *testing.T) {
	f := newResetFixture(t)
	token := f.issue(t)

	err := f.service.Reset(token, currentPassword)
	assert.ErrorIs(t, err, services.ErrPasswordUnchanged)
	assert.Equal(t, "unchanged", reason(err))

	stored, err := f.tokens.FindByToken(token)
	require.NoError(t, err)
	assert.False(t, stored.Used)
	assert.NoError(t, f.service.Reset(token, newPassword))
}

func TestReset_RejectsWeakPasswordAndUnknownToken(t *testing.T) {
	f := newResetFixture(t)
	token := f.issue(t)

	err := f.service.Reset(token, "password")
	assert.ErrorIs(t, err, services.ErrWeakPassword)

	err = f.service.Reset("does-not-exist", newPassword)
	assert.ErrorIs(t, err, services.ErrTokenInvalid)

	_, err = f.service.Validate("")
	assert.ErrorIs(t, err, services.ErrTokenInvalid)
}

func TestReset_ConfirmationFailureIsNotFatal(t *testing.T) {
	f := newResetFixture(t)
	token := f.issue(t)
	f.notifier.ExpectedCalls = nil
	f.notifier.On("PasswordChanged", mock.Anything).Return(errors.New("smtp unavailable"))

	assert.NoError(t, f.service.Reset(token, newPassword))
}
