package account

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/apperr"
	"github.com/climatica/climatica/internal/authz"
	"github.com/climatica/climatica/internal/observability"
)

// emailRegex is the accepted shape of an email address.
var emailRegex = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+$`)

// Login outcome labels.
const (
	loginSuccess        = "success"
	loginUnknownAccount = "unknown_account"
	loginBadPassword    = "bad_password"
)

// ServiceConfig holds configuration for the account service.
type ServiceConfig struct {
	Repository Repository
	Hasher     PasswordHasher
	Logger     zerolog.Logger
	Clock      clockwork.Clock
	Metrics    *observability.Metrics

	// CanUpdate and CanDelete gate mutations. Nil means authz.AllowAll.
	CanUpdate authz.Policy
	CanDelete authz.Policy
}

// Service provides account operations.
type Service struct {
	repo      Repository
	hasher    PasswordHasher
	log       zerolog.Logger
	clock     clockwork.Clock
	metrics   *observability.Metrics
	canUpdate authz.Policy
	canDelete authz.Policy
}

// NewService creates a new account service.
func NewService(cfg ServiceConfig) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = NewBcryptHasher(0)
	}
	return &Service{
		repo:      cfg.Repository,
		hasher:    hasher,
		log:       cfg.Logger.With().Str("component", "account").Logger(),
		clock:     clock,
		metrics:   cfg.Metrics,
		canUpdate: authz.OrDefault(cfg.CanUpdate),
		canDelete: authz.OrDefault(cfg.CanDelete),
	}
}

// Register creates an account. Names and email are trimmed and the email
// lower-cased before validation; the password is hashed exactly as given.
// Nothing reaches the repository when validation fails.
func (s *Service) Register(ctx context.Context, input *models.RegistrationRequest) (*models.Account, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := normalizeEmail(input.Email)

	fieldErrors := validateProfile(firstName, lastName, email)
	if strings.TrimSpace(input.Password) == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "password", Message: "is required", Code: "REQUIRED"})
	}
	if len(fieldErrors) > 0 {
		return nil, &apperr.ValidationError{Errors: fieldErrors}
	}

	taken, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		s.metrics.Conflict(observability.EntityAccount)
		return nil, ErrEmailTaken
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	a := &Account{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			s.metrics.Conflict(observability.EntityAccount)
		}
		return nil, err
	}

	s.metrics.Registered()
	s.log.Debug().Int64("account_id", a.ID).Msg("account registered")

	result := toAPIAccount(a)
	return &result, nil
}

// Login checks credentials and returns the account ID.
func (s *Service) Login(ctx context.Context, email, password string) (int64, error) {
	a, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.metrics.Login(loginUnknownAccount)
		}
		return 0, err
	}

	if !s.hasher.Verify(password, a.PasswordHash) {
		s.metrics.Login(loginBadPassword)
		return 0, ErrInvalidCredentials
	}

	s.metrics.Login(loginSuccess)
	return a.ID, nil
}

// Get retrieves an account by ID.
func (s *Service) Get(ctx context.Context, id int64) (*models.Account, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toAPIAccount(a)
	return &result, nil
}

// Update replaces the name and email of an account on behalf of actorID.
func (s *Service) Update(ctx context.Context, actorID, id int64, input *models.AccountUpdateRequest) (*models.Account, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := normalizeEmail(input.Email)

	if fieldErrors := validateProfile(firstName, lastName, email); len(fieldErrors) > 0 {
		return nil, &apperr.ValidationError{Errors: fieldErrors}
	}

	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.IsAuthorizedToUpdate(actorID, id) {
		return nil, ErrNotAllowed
	}

	if email != a.Email {
		taken, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken {
			s.metrics.Conflict(observability.EntityAccount)
			return nil, ErrEmailTaken
		}
	}

	a.FirstName = firstName
	a.LastName = lastName
	a.Email = email
	a.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			s.metrics.Conflict(observability.EntityAccount)
		}
		return nil, err
	}

	result := toAPIAccount(a)
	return &result, nil
}

// Delete removes an account on behalf of actorID.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}

	if !s.IsAuthorizedToDelete(actorID, id) {
		return ErrNotAllowed
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.metrics.Deleted(observability.EntityAccount)
	s.log.Debug().Int64("account_id", id).Int64("actor_id", actorID).Msg("account deleted")
	return nil
}

// Search returns a page of accounts matching the substring filters.
func (s *Service) Search(ctx context.Context, filter models.AccountSearch, offset, limit int) ([]models.Account, error) {
	if fieldErrors := validatePage(offset, limit); len(fieldErrors) > 0 {
		return nil, &apperr.ValidationError{Errors: fieldErrors}
	}

	found, err := s.repo.Search(ctx, SearchFilter{
		FirstName: filter.FirstName,
		LastName:  filter.LastName,
		Email:     filter.Email,
	}, offset, limit)
	if err != nil {
		return nil, err
	}

	items := make([]models.Account, 0, len(found))
	for _, a := range found {
		items = append(items, toAPIAccount(a))
	}
	return items, nil
}

// IsAuthorizedToUpdate reports whether actorID may update account id.
func (s *Service) IsAuthorizedToUpdate(actorID, id int64) bool {
	return s.canUpdate(actorID, id)
}

// IsAuthorizedToDelete reports whether actorID may delete account id.
func (s *Service) IsAuthorizedToDelete(actorID, id int64) bool {
	return s.canDelete(actorID, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateProfile validates already-trimmed profile fields.
func validateProfile(firstName, lastName, email string) []models.FieldError {
	var errs []models.FieldError

	if firstName == "" {
		errs = append(errs, models.FieldError{Field: "firstName", Message: "is required", Code: "REQUIRED"})
	}
	if lastName == "" {
		errs = append(errs, models.FieldError{Field: "lastName", Message: "is required", Code: "REQUIRED"})
	}
	if email == "" {
		errs = append(errs, models.FieldError{Field: "email", Message: "is required", Code: "REQUIRED"})
	} else if !emailRegex.MatchString(email) {
		errs = append(errs, models.FieldError{Field: "email", Message: "must be a valid email address", Code: "INVALID_FORMAT"})
	}

	return errs
}

func validatePage(offset, limit int) []models.FieldError {
	var errs []models.FieldError
	if offset < 0 {
		errs = append(errs, models.FieldError{Field: "from", Message: "must not be negative", Code: "OUT_OF_RANGE"})
	}
	if limit <= 0 {
		errs = append(errs, models.FieldError{Field: "size", Message: "must be positive", Code: "OUT_OF_RANGE"})
	}
	return errs
}

// toAPIAccount converts a domain Account to an API Account.
func toAPIAccount(a *Account) models.Account {
	return models.Account{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
	}
}
