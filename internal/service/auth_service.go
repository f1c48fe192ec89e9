package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"livaulislam/internal/middleware"
	"livaulislam/internal/models"
	"livaulislam/internal/repository"
	"livaulislam/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthEventPublisher fans auth-state transitions out to the user's listeners.
type AuthEventPublisher interface {
	PublishAuthEvent(ctx context.Context, event models.AuthEvent) error
}

type AuthService struct {
	accounts repository.AccountRepository
	profiles repository.ProfileRepository
	revoker  TokenRevoker
	events   AuthEventPublisher
	secret   string
	tokenTTL time.Duration

	hashPassword    func(password string) (string, error)
	comparePassword func(hash, password string) error
	now             func() time.Time
}

type SignUpInput struct {
	Email       string
	Password    string
	Username    string
	DisplayName string
}

type ChangePasswordInput struct {
	UserID   uuid.UUID
	Password string
	Confirm  string
}

func NewAuthService(
	accounts repository.AccountRepository,
	profiles repository.ProfileRepository,
	revoker TokenRevoker,
	events AuthEventPublisher,
	secret string,
	tokenTTL time.Duration,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		accounts: accounts,
		profiles: profiles,
		revoker:  revoker,
		events:   events,
		secret:   secret,
		tokenTTL: tokenTTL,
		hashPassword: func(password string) (string, error) {
			b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			return string(b), err
		},
		comparePassword: func(hash, password string) error {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		},
		now: time.Now,
	}
}

// SignUp creates the account and its profile and signs the new user in.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*models.AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.DisplayName = strings.TrimSpace(in.DisplayName)

	if in.Email == "" || in.Password == "" || in.Username == "" {
		return nil, models.NewValidationError("Email, password, and username are required")
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	taken, err := s.profiles.UsernameTaken(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewAuthError(models.CodeUsernameTaken, "Username is already taken")
	}

	existing, err := s.accounts.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewAuthError(models.CodeEmailTaken, "An account with this email already exists")
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	account := &models.Account{Email: in.Email, PasswordHash: hash}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	displayName := in.DisplayName
	if displayName == "" {
		displayName = in.Username
	}
	profile := &models.Profile{
		ID:          account.ID,
		Username:    in.Username,
		DisplayName: displayName,
		Version:     1,
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	// The upsert may have kept an existing row; read back what is stored.
	if stored, err := s.profiles.GetByID(ctx, account.ID); err == nil {
		profile = stored
	}

	session, err := s.issue(account, profile.Username)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, models.AuthEventSignedIn, account.ID, session)
	return &models.AuthResult{Session: session, Profile: profile}, nil
}

// SignIn accepts an email, or a username matched exactly and resolved to its account.
func (s *AuthService) SignIn(ctx context.Context, identifier, password string) (*models.AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, models.NewValidationError("Email or username and password are required")
	}

	var (
		account *models.Account
		profile *models.Profile
		err     error
	)
	if validation.IsEmail(identifier) {
		account, err = s.accounts.GetByEmail(ctx, strings.ToLower(identifier))
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, models.NewAuthError(models.CodeInvalidCredentials, "Invalid login credentials")
		}
	} else {
		profile, err = s.profiles.GetByUsername(ctx, identifier)
		if err != nil {
			if isNotFound(err) {
				return nil, models.NewAuthError(models.CodeUserNotFound, "User not found")
			}
			return nil, err
		}
		account, err = s.accounts.GetByID(ctx, profile.ID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, models.NewAuthError(models.CodeUserNotFound, "User not found")
		}
	}

	if err := s.comparePassword(account.PasswordHash, password); err != nil {
		return nil, models.NewAuthError(models.CodeInvalidCredentials, "Invalid login credentials")
	}

	if profile == nil {
		profile, err = s.profiles.GetByID(ctx, account.ID)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
	}
	username := ""
	if profile != nil {
		username = profile.Username
	}

	session, err := s.issue(account, username)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, models.AuthEventSignedIn, account.ID, session)
	return &models.AuthResult{Session: session, Profile: profile}, nil
}

// SignOut revokes the token for the rest of its lifetime. SIGNED_OUT is
// published even when the revocation fails.
func (s *AuthService) SignOut(ctx context.Context, claims *middleware.Claims) error {
	if claims == nil {
		return models.NewAuthError(models.CodeNotAuthenticated, "Not authenticated")
	}
	userID, err := claims.UserID()
	if err != nil {
		return models.NewUnauthorizedError("Invalid token")
	}

	var revokeErr error
	if claims.ExpiresAt != nil {
		revokeErr = s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Sub(s.now()))
	}
	s.publish(ctx, models.AuthEventSignedOut, userID, nil)
	if revokeErr != nil {
		return models.NewInternalError(revokeErr)
	}
	return nil
}

// DeleteAccount only ends the session; account data is kept.
func (s *AuthService) DeleteAccount(ctx context.Context, claims *middleware.Claims) error {
	return s.SignOut(ctx, claims)
}

// Session resolves a bearer token to its session and profile.
func (s *AuthService) Session(ctx context.Context, token string) (*models.AuthResult, error) {
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	userID, _ := claims.UserID()

	session := &models.Session{
		AccessToken: token,
		User:        models.SessionUser{ID: userID, Email: claims.Email},
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		profile = nil
	}
	return &models.AuthResult{Session: session, Profile: profile}, nil
}

// Authenticate validates a token and rejects revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*middleware.Claims, error) {
	if token == "" {
		return nil, models.NewAuthError(models.CodeNotAuthenticated, "Not authenticated")
	}
	claims, err := middleware.ParseToken(s.secret, token)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if revoked {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}
	return claims, nil
}

// UsernameAvailable checks availability case-insensitively.
func (s *AuthService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if err := validation.ValidateUsername(username); err != nil {
		return false, models.NewValidationError(err.Error())
	}
	taken, err := s.profiles.UsernameTaken(ctx, username)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if err := validation.ValidatePasswordChange(in.Password, in.Confirm); err != nil {
		if errors.Is(err, validation.ErrPasswordMismatch) {
			return models.NewValidationError("Passwords do not match")
		}
		return models.NewValidationError(err.Error())
	}
	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.accounts.UpdatePassword(ctx, in.UserID, hash); err != nil {
		return err
	}
	s.publish(ctx, models.AuthEventUserUpdated, in.UserID, nil)
	return nil
}

func (s *AuthService) issue(account *models.Account, username string) (*models.Session, error) {
	token, claims, err := middleware.IssueToken(s.secret, account.ID, account.Email, username, s.tokenTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.Session{
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        models.SessionUser{ID: account.ID, Email: account.Email},
	}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, userID uuid.UUID, session *models.Session) {
	publishAuthEvent(ctx, s.events, models.AuthEvent{Type: eventType, UserID: userID, Session: session, At: s.now().UTC()})
}

// publishAuthEvent delivers event when a publisher is configured. Delivery
// failures are logged; the caller's write has already committed.
func publishAuthEvent(ctx context.Context, events AuthEventPublisher, event models.AuthEvent) {
	if events == nil {
		return
	}
	if err := events.PublishAuthEvent(ctx, event); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish auth event",
			"type", event.Type, "user_id", event.UserID.String(), "error", err)
	}
}

func isNotFound(err error) bool {
	appErr, ok := models.AsAppError(err)
	return ok && appErr.Code == models.CodeNotFound
}
