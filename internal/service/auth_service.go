package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"petconnect/internal/mail"
	"petconnect/internal/middleware"
	"petconnect/internal/models"
	"petconnect/internal/observability"
	"petconnect/internal/otp"
	"petconnect/internal/repository"
	"petconnect/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// BlacklistKeyPrefix namespaces revoked token ids in Redis.
const BlacklistKeyPrefix = "blacklist:"

type AuthService struct {
	userRepo  repository.UserRepository
	otpStore  otp.Store
	mailer    mail.Sender
	rdb       *redis.Client
	jwtSecret string
	now       func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	otpStore otp.Store,
	mailer mail.Sender,
	rdb *redis.Client,
	jwtSecret string,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		otpStore:  otpStore,
		mailer:    mailer,
		rdb:       rdb,
		jwtSecret: jwtSecret,
		now:       time.Now,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    string
}

// LoginChallenge is returned once the password is accepted and a code was issued.
type LoginChallenge struct {
	OTPSent   bool      `json:"otpSent"`
	OTPExpiry time.Time `json:"otpExpiry"`
	Message   string    `json:"message"`
}

// Session is the result of a completed login.
type Session struct {
	Token string
	User  *models.User
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email, and password are required")
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
	if in.FullName == "" {
		in.FullName = in.Username
	}
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if len(in.Phone) > 20 {
		return nil, models.NewValidationError("Phone number too long (max 20 characters)")
	}

	if taken, err := s.userRepo.ExistsByUsername(ctx, in.Username, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, models.NewConflictError("Username is already taken")
	}
	if taken, err := s.userRepo.ExistsByEmail(ctx, in.Email, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, models.NewConflictError("Email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
		FullName: in.FullName,
		Phone:    strings.TrimSpace(in.Phone),
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the password and issues a one-time code by mail. Mail failures
// are logged and never surface to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginChallenge, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	code, err := otp.Generate()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.otpStore.Save(ctx, email, code, otp.TTL); err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.OTPEvents.WithLabelValues("issued").Inc()

	if s.mailer != nil {
		if err := s.mailer.SendOTP(ctx, user.Email, user.FullName, code); err != nil {
			middleware.Logger.ErrorContext(ctx, "failed to send otp email",
				slog.Uint64("user_id", uint64(user.ID)),
				slog.Any("error", err),
			)
		}
	}

	return &LoginChallenge{
		OTPSent:   true,
		OTPExpiry: s.now().Add(otp.TTL),
		Message:   "OTP sent to your email",
	}, nil
}

// VerifyOTP consumes a matching code and returns a signed session token.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, models.NewValidationError("Email and OTP are required")
	}

	ok, err := s.otpStore.Verify(ctx, email, code)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !ok {
		observability.OTPEvents.WithLabelValues("rejected").Inc()
		return nil, models.NewUnauthorizedError("Invalid or expired OTP")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid or expired OTP")
	}
	observability.OTPEvents.WithLabelValues("verified").Inc()

	token, _, err := middleware.IssueToken(s.jwtSecret, user.ID, user.Role, s.now())
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{Token: token, User: user}, nil
}

// Logout revokes the token id until the token would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return models.NewValidationError("Token has no id")
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if s.rdb == nil {
		middleware.Logger.WarnContext(ctx, "logout without redis; token stays valid until expiry")
		return nil
	}
	if err := s.rdb.Set(ctx, BlacklistKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// IsRevoked reports whether the token id was logged out. Redis failures fail open.
func (s *AuthService) IsRevoked(ctx context.Context, jti string) bool {
	if s.rdb == nil || jti == "" {
		return false
	}
	n, err := s.rdb.Exists(ctx, BlacklistKeyPrefix+jti).Result()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			middleware.Logger.WarnContext(ctx, "blacklist lookup failed", slog.Any("error", err))
		}
		return false
	}
	return n > 0
}
