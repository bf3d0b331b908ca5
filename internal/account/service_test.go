package account_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/climatica/climatica/internal/account"
	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/apperr"
	"github.com/climatica/climatica/internal/authz"
	"github.com/climatica/climatica/internal/observability"
)

// countingRepository records how many times the store was consulted.
type countingRepository struct {
	*account.InMemoryRepository
	mu    sync.Mutex
	calls int
}

func (r *countingRepository) touch() {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
}

func (r *countingRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.touch()
	return r.InMemoryRepository.ExistsByEmail(ctx, email)
}

func (r *countingRepository) Create(ctx context.Context, a *account.Account) error {
	r.touch()
	return r.InMemoryRepository.Create(ctx, a)
}

func newTestService(t *testing.T, opts ...func(*account.ServiceConfig)) (*account.Service, *account.InMemoryRepository) {
	t.Helper()
	repo := account.NewInMemoryRepository()
	cfg := account.ServiceConfig{
		Repository: repo,
		Hasher:     account.NewBcryptHasher(bcrypt.MinCost),
		Logger:     zerolog.Nop(),
		Clock:      clockwork.NewFakeClockAt(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return account.NewService(cfg), repo
}

func register(t *testing.T, svc *account.Service, first, last, email string) *models.Account {
	t.Helper()
	a, err := svc.Register(context.Background(), &models.RegistrationRequest{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Password:  "correct horse",
	})
	require.NoError(t, err)
	return a
}

func TestService_Register(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, &models.RegistrationRequest{
		FirstName: "  Ada ",
		LastName:  " Lovelace",
		Email:     "  Ada@Example.COM ",
		Password:  "correct horse",
	})
	require.NoError(t, err)

	assert.Positive(t, a.ID)
	assert.Equal(t, "Ada", a.FirstName)
	assert.Equal(t, "Lovelace", a.LastName)
	assert.Equal(t, "ada@example.com", a.Email)

	stored, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", stored.PasswordHash)
	assert.Equal(t, time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC), stored.CreatedAt)
}

func TestService_Register_DuplicateEmailAfterNormalization(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	svc, _ := newTestService(t, func(c *account.ServiceConfig) { c.Metrics = metrics })
	register(t, svc, "Ada", "Lovelace", "ada@example.com")

	_, err := svc.Register(context.Background(), &models.RegistrationRequest{
		FirstName: "Other",
		LastName:  "Person",
		Email:     " ADA@example.com",
		Password:  "secret",
	})

	assert.ErrorIs(t, err, account.ErrEmailTaken)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Conflicts.WithLabelValues("account")), 0)
}

func TestService_Register_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     models.RegistrationRequest
		wantField string
	}{
		{"blank first name", models.RegistrationRequest{FirstName: "  ", LastName: "L", Email: "a@b.c", Password: "p"}, "firstName"},
		{"blank last name", models.RegistrationRequest{FirstName: "F", LastName: "", Email: "a@b.c", Password: "p"}, "lastName"},
		{"blank email", models.RegistrationRequest{FirstName: "F", LastName: "L", Email: " ", Password: "p"}, "email"},
		{"not an email", models.RegistrationRequest{FirstName: "F", LastName: "L", Email: "not-an-email", Password: "p"}, "email"},
		{"space inside email", models.RegistrationRequest{FirstName: "F", LastName: "L", Email: "a b@c.d", Password: "p"}, "email"},
		{"blank password", models.RegistrationRequest{FirstName: "F", LastName: "L", Email: "a@b.c", Password: "  "}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &countingRepository{InMemoryRepository: account.NewInMemoryRepository()}
			svc := account.NewService(account.ServiceConfig{
				Repository: repo,
				Hasher:     account.NewBcryptHasher(bcrypt.MinCost),
				Logger:     zerolog.Nop(),
			})

			input := tt.input
			_, err := svc.Register(context.Background(), &input)
			require.Error(t, err)

			var validationErr *apperr.ValidationError
			require.ErrorAs(t, err, &validationErr)
			fields := make([]string, 0, len(validationErr.Errors))
			for _, fe := range validationErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.wantField)
			assert.Zero(t, repo.calls, "store must not be touched on invalid input")
		})
	}
}

func TestService_Register_ConcurrentIdenticalEmails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Register(ctx, &models.RegistrationRequest{
				FirstName: "Racer",
				LastName:  fmt.Sprintf("No%d", i),
				Email:     "race@example.com",
				Password:  "secret",
			})
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, account.ErrEmailTaken)
	}
	assert.Equal(t, 1, succeeded)
}

func TestService_Login(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := register(t, svc, "Ada", "Lovelace", "ada@example.com")

	t.Run("success with unnormalized email", func(t *testing.T) {
		id, err := svc.Login(ctx, " ADA@example.com ", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, a.ID, id)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "correct horse")
		assert.ErrorIs(t, err, account.ErrAccountNotFound)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "ada@example.com", "wrong")
		assert.ErrorIs(t, err, account.ErrInvalidCredentials)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})
}

func TestService_Login_PasswordKeepsSurroundingSpaces(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, &models.RegistrationRequest{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		Password:  " secret ",
	})
	require.NoError(t, err)

	id, err := svc.Login(ctx, "grace@example.com", " secret ")
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)

	_, err = svc.Login(ctx, "grace@example.com", "secret")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
}

func TestService_Get(t *testing.T) {
	svc, _ := newTestService(t)
	a := register(t, svc, "Ada", "Lovelace", "ada@example.com")

	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = svc.Get(context.Background(), 999)
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
}

func TestService_Update(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ada := register(t, svc, "Ada", "Lovelace", "ada@example.com")
	grace := register(t, svc, "Grace", "Hopper", "grace@example.com")

	t.Run("keeps own email", func(t *testing.T) {
		got, err := svc.Update(ctx, ada.ID, ada.ID, &models.AccountUpdateRequest{
			FirstName: "Augusta", LastName: "King", Email: "ADA@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "Augusta", got.FirstName)
		assert.Equal(t, "ada@example.com", got.Email)
	})

	t.Run("changes to free email", func(t *testing.T) {
		got, err := svc.Update(ctx, ada.ID, ada.ID, &models.AccountUpdateRequest{
			FirstName: "Ada", LastName: "Lovelace", Email: "countess@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "countess@example.com", got.Email)

		_, err = svc.Login(ctx, "countess@example.com", "correct horse")
		assert.NoError(t, err)
	})

	t.Run("email taken by another account", func(t *testing.T) {
		_, err := svc.Update(ctx, ada.ID, ada.ID, &models.AccountUpdateRequest{
			FirstName: "Ada", LastName: "Lovelace", Email: grace.Email,
		})
		assert.ErrorIs(t, err, account.ErrEmailTaken)
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := svc.Update(ctx, ada.ID, 404, &models.AccountUpdateRequest{
			FirstName: "A", LastName: "B", Email: "ab@example.com",
		})
		assert.ErrorIs(t, err, account.ErrAccountNotFound)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := svc.Update(ctx, ada.ID, ada.ID, &models.AccountUpdateRequest{
			FirstName: "A", LastName: "B", Email: "nope",
		})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestService_AuthorizationSeams(t *testing.T) {
	t.Run("default policy permits everyone", func(t *testing.T) {
		svc, _ := newTestService(t)
		assert.True(t, svc.IsAuthorizedToUpdate(1, 2))
		assert.True(t, svc.IsAuthorizedToDelete(1, 2))
	})

	t.Run("substituted policy is consulted", func(t *testing.T) {
		svc, _ := newTestService(t, func(c *account.ServiceConfig) {
			c.CanUpdate = authz.SelfOnly
			c.CanDelete = authz.SelfOnly
		})
		ctx := context.Background()
		ada := register(t, svc, "Ada", "Lovelace", "ada@example.com")
		grace := register(t, svc, "Grace", "Hopper", "grace@example.com")

		_, err := svc.Update(ctx, grace.ID, ada.ID, &models.AccountUpdateRequest{
			FirstName: "X", LastName: "Y", Email: "ada@example.com",
		})
		assert.ErrorIs(t, err, account.ErrNotAllowed)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

		err = svc.Delete(ctx, grace.ID, ada.ID)
		assert.ErrorIs(t, err, account.ErrNotAllowed)

		require.NoError(t, svc.Delete(ctx, ada.ID, ada.ID))
	})
}

func TestService_Delete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := register(t, svc, "Ada", "Lovelace", "ada@example.com")

	require.NoError(t, svc.Delete(ctx, a.ID, a.ID))

	assert.NotPanics(t, func() {
		err := svc.Delete(ctx, a.ID, a.ID)
		assert.ErrorIs(t, err, account.ErrAccountNotFound)
	})

	// The email is free again.
	register(t, svc, "Ada", "Again", "ada@example.com")
}

func TestService_Search(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "Ada", "Lovelace", "ada@example.com")
	register(t, svc, "Grace", "Hopper", "grace@navy.mil")
	register(t, svc, "Alan", "Turing", "alan@example.com")
	register(t, svc, "Adele", "Goldberg", "adele@parc.com")

	ptr := func(s string) *string { return &s }

	t.Run("no filters pages through everything without repeats", func(t *testing.T) {
		seen := map[int64]bool{}
		for offset := 0; offset < 4; offset += 2 {
			page, err := svc.Search(ctx, models.AccountSearch{}, offset, 2)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(page), 2)
			for _, a := range page {
				assert.False(t, seen[a.ID], "account %d repeated", a.ID)
				seen[a.ID] = true
			}
		}
		assert.Len(t, seen, 4)
	})

	t.Run("substring filters are a conjunction", func(t *testing.T) {
		page, err := svc.Search(ctx, models.AccountSearch{FirstName: ptr("Ad"), Email: ptr("example")}, 0, 10)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "Ada", page[0].FirstName)
	})

	t.Run("match is case sensitive", func(t *testing.T) {
		page, err := svc.Search(ctx, models.AccountSearch{LastName: ptr("hopper")}, 0, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("invalid paging", func(t *testing.T) {
		_, err := svc.Search(ctx, models.AccountSearch{}, -1, 10)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

		_, err = svc.Search(ctx, models.AccountSearch{}, 0, 0)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}
