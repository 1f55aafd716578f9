package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/cugino/restaurant-auth/internal/api/metrics"
	"github.com/cugino/restaurant-auth/internal/core/domain"
	"github.com/cugino/restaurant-auth/internal/core/ports"
)

// Session token constants. Tokens are stateless: there is no server-side
// revocation, a token stays valid until expiry.
const (
	TokenIssuer   = "cugino-api"
	TokenAudience = "cugino-client"
	TokenTTL      = 24 * time.Hour
)

// UserService implements the authentication and user-management core.
type UserService struct {
	repo       ports.UserRepository
	publisher  ports.EventPublisher // optional
	jwtSecret  string
	tokenTTL   time.Duration
	bcryptCost int
	log        zerolog.Logger
}

// NewUserService wires the service. publisher may be nil, in which case
// drained domain events are discarded after logging.
func NewUserService(repo ports.UserRepository, publisher ports.EventPublisher, jwtSecret string, bcryptCost int, log zerolog.Logger) *UserService {
	if bcryptCost <= 0 {
		bcryptCost = domain.DefaultBcryptCost
	}
	return &UserService{
		repo:       repo,
		publisher:  publisher,
		jwtSecret:  jwtSecret,
		tokenTTL:   TokenTTL,
		bcryptCost: bcryptCost,
		log:        log,
	}
}

// CreateUser validates name, role and the server/establishment invariant,
// upgrades a plaintext password to a hash when needed, and persists. The
// store's unique index on name is the final backstop for the uniqueness
// check performed here.
func (s *UserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	if in.Password == "" {
		return nil, domain.ErrPasswordRequired
	}

	existing, err := s.repo.FindByName(ctx, in.Name)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrNameTaken
	}

	var user *domain.User
	if domain.IsHashedPassword(in.Password) {
		// Administrative path: the credential arrives already hashed.
		hash, err := domain.ParsePasswordHash(in.Password)
		if err != nil {
			return nil, err
		}
		user, err = domain.NewUserWithHash(in.Role, in.Name, hash, in.EstablishmentID)
		if err != nil {
			return nil, err
		}
	} else {
		timer := prometheus.NewTimer(metrics.PasswordHashDuration)
		user, err = domain.NewUser(in.Role, in.Name, in.Password, in.EstablishmentID, s.bcryptCost)
		timer.ObserveDuration()
		if err != nil {
			return nil, err
		}
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.publish(created.DrainEvents())

	// Post-creation hook: observability only.
	metrics.UsersCreatedTotal.WithLabelValues(string(created.Role())).Inc()
	s.log.Info().
		Int64("user_id", created.ID()).
		Str("name", created.Name()).
		Str("role", string(created.Role())).
		Msg("user created")

	return created, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	if id <= 0 {
		return nil, domain.NewValidationError("id must be a positive number")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.FindAll(ctx)
}

func (s *UserService) ListUsersByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	return s.repo.FindByRole(ctx, role)
}

func (s *UserService) ListUsersByEstablishment(ctx context.Context, establishmentID int64) ([]*domain.User, error) {
	if establishmentID <= 0 {
		return nil, domain.NewValidationError("establishment id must be a positive number")
	}
	return s.repo.FindByEstablishment(ctx, establishmentID)
}

// UpdateUser applies partial changes through the aggregate's guarded
// mutators. A password supplied here is treated as plaintext and must meet
// the strength policy.
func (s *UserService) UpdateUser(ctx context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		other, err := s.repo.FindByName(ctx, *in.Name)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("update user: %w", err)
		}
		if other != nil && other.ID() != id {
			return nil, domain.ErrNameTaken
		}
		if err := user.Rename(*in.Name); err != nil {
			return nil, err
		}
	}

	if in.Password != nil {
		timer := prometheus.NewTimer(metrics.PasswordHashDuration)
		err := user.ChangePassword(*in.Password, s.bcryptCost)
		timer.ObserveDuration()
		if err != nil {
			return nil, err
		}
	}

	// Establishment first, so a simultaneous move to the server role can
	// rely on the fresh link.
	if in.RemoveEstablishment {
		if err := user.RemoveFromEstablishment(); err != nil {
			return nil, err
		}
	} else if in.EstablishmentID != nil {
		user.AssignToEstablishment(*in.EstablishmentID)
	}

	if in.Role != nil {
		if err := user.ChangeRole(*in.Role); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	s.publish(user.DrainEvents())

	s.log.Info().Int64("user_id", id).Msg("user updated")
	return updated, nil
}

// DeleteUser removes a user. Deleting the last remaining admin is refused.
// The count-then-delete sequence is not transactional; see DESIGN.md.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if user.Role() == domain.RoleAdmin {
		n, err := s.repo.CountByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if n <= 1 {
			return domain.ErrLastAdmin
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().
		Int64("user_id", id).
		Str("name", user.Name()).
		Msg("user deleted")
	return nil
}

// VerifyCredentials looks the user up by exact name and checks the
// password twice: once against the stored hash and once through the
// aggregate. Unknown user and wrong password both return (nil, nil).
func (s *UserService) VerifyCredentials(ctx context.Context, name, password string) (*domain.User, error) {
	if name == "" || password == "" {
		return nil, domain.NewValidationError("name and password are required")
	}

	user, err := s.repo.FindByName(ctx, name)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	if !user.PasswordHash().Verify(password) {
		return nil, nil
	}
	if !user.VerifyPassword(password) {
		return nil, nil
	}

	s.log.Debug().Str("name", user.Name()).Msg("credentials verified")
	return user, nil
}

// ChangePassword re-authenticates with the current password before
// changing it. Previously issued tokens stay valid until they expire.
func (s *UserService) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !user.VerifyPassword(currentPassword) {
		return domain.ErrWrongPassword
	}

	timer := prometheus.NewTimer(metrics.PasswordHashDuration)
	err = user.ChangePassword(newPassword, s.bcryptCost)
	timer.ObserveDuration()
	if err != nil {
		return err
	}

	if _, err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.publish(user.DrainEvents())

	s.log.Info().Int64("user_id", id).Msg("password changed")
	return nil
}

// Login verifies credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, name, password string) (string, *domain.User, error) {
	user, err := s.VerifyCredentials(ctx, name, password)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Int64("user_id", user.ID()).Str("name", user.Name()).Msg("login succeeded")
	return token, user, nil
}

// IssueToken signs the identity claims with the server secret. Expiry is
// fixed at TokenTTL from now.
func (s *UserService) IssueToken(user *domain.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"user_id": user.ID(),
		"name":    user.Name(),
		"role":    string(user.Role()),
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iss":     TokenIssuer,
		"aud":     TokenAudience,
	}
	if estID := user.EstablishmentID(); estID != nil {
		claims["establishment_id"] = *estID
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	metrics.TokensIssuedTotal.Inc()
	return signed, nil
}

// ValidateToken verifies signature, expiry, issuer and audience, then
// resolves the *current* stored user by id. The store fetch is bounded by
// ctx; a timeout surfaces as an authentication error, not a not-found.
func (s *UserService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			metrics.TokenValidationsTotal.WithLabelValues("expired").Inc()
			return nil, domain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
			return nil, domain.ErrTokenNotYetValid
		default:
			metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
			return nil, domain.ErrTokenInvalid
		}
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.repo.FindByID(ctx, int64(userID))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, domain.ErrAuthTimeout
		}
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.TokenValidationsTotal.WithLabelValues("user_missing").Inc()
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("validate token: %w", err)
	}

	metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()
	return user, nil
}

func (s *UserService) Permissions(ctx context.Context, id int64) ([]string, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Permissions(), nil
}

func (s *UserService) CanAccessEstablishment(ctx context.Context, userID, establishmentID int64) (bool, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.CanAccessEstablishment(establishmentID), nil
}

func (s *UserService) publish(events []domain.Event) {
	if len(events) == 0 {
		return
	}
	if s.publisher == nil {
		for _, e := range events {
			s.log.Debug().
				Int64("entity_id", e.EntityID).
				Str("event_type", string(e.Type)).
				Msg("domain event dropped, no publisher configured")
		}
		return
	}
	s.publisher.Publish(events)
}
