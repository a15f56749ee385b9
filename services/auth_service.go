package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizai/apperr"
	"quizai/logger"
	"quizai/mailer"
	"quizai/models"
	"quizai/ratelimit"
	"quizai/security"
	"quizai/store"
)

const (
	EmailDeliverySent   = "sent"
	EmailDeliveryFailed = "failed"

	cooldownVerifyEmail = "verify_email"
	cooldownResetEmail  = "reset_email"
)

var (
	errInvalidCredentials = apperr.Unauthenticated("Invalid credentials.")
	errResetTokenInvalid  = apperr.Validation("Invalid or expired token.").WithCode("TOKEN_INVALID")
)

type AuthConfig struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	FrontendURL     string
}

type AuthService struct {
	store   *store.Store
	tokens  *security.TokenIssuer
	mail    mailer.Mailer
	limiter ratelimit.Limiter
	cfg     AuthConfig
	log     *logger.Logger
	now     func() time.Time
}

func NewAuthService(st *store.Store, tokens *security.TokenIssuer, mail mailer.Mailer, limiter ratelimit.Limiter, cfg AuthConfig, log *logger.Logger) *AuthService {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = 24 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	return &AuthService{
		store:   st,
		tokens:  tokens,
		mail:    mail,
		limiter: limiter,
		cfg:     cfg,
		log:     orNop(log).With("service", "auth"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResetPasswordRequest struct {
	UserID   string `json:"id" form:"id"`
	Password string `json:"password" form:"password"`
	Token    string `json:"token" form:"token"`
}

type SignupResult struct {
	User          *models.User
	EmailDelivery string
}

type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an unverified user and mails the first verification code.
// A failed send does not undo the account; it is reported in the result.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest, clientIP string) (*SignupResult, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if err := security.ValidateRegistration(email, req.Password, name); err != nil {
		return nil, err
	}
	if err := s.checkAndHit(ctx, "signup attempts", ratelimit.SignupIP, clientIP); err != nil {
		return nil, err
	}
	if err := s.checkAndHit(ctx, "signup attempts", ratelimit.SignupEmail, email); err != nil {
		return nil, err
	}

	exists, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("Email is already registered.")
	}

	hash, salt, err := security.NewPasswordHash(req.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	code, err := security.VerificationCode()
	if err != nil {
		return nil, apperr.Internal("generate verification code", err)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		PasswordSalt: salt,
		Role:         models.RoleStudent,
	}
	token := &models.EmailVerificationToken{Token: code, ExpiresAt: s.now().Add(s.cfg.VerificationTTL)}
	if err := s.store.CreateUserWithVerification(ctx, user, token); err != nil {
		return nil, err
	}
	s.log.Info("user registered", "user_id", user.ID)

	result := &SignupResult{User: user, EmailDelivery: EmailDeliverySent}
	if err := s.mail.Send(ctx, mailer.VerificationEmail(email, code, s.cfg.VerificationTTL)); err != nil {
		s.log.Error("send verification email", "user_id", user.ID, "error", err)
		result.EmailDelivery = EmailDeliveryFailed
	} else {
		s.limiter.SetCooldown(ctx, cooldownVerifyEmail, email, ratelimit.EmailCooldown)
	}
	return result, nil
}

// VerifyNewUser consumes a verification code for userID.
func (s *AuthService) VerifyNewUser(ctx context.Context, userID uuid.UUID, code string) error {
	key := userID.String()
	if retry, blocked := s.limiter.Blocked(ctx, ratelimit.Verify, key); blocked {
		return tooManyRequests("verification attempts", retry)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return apperr.Validation("Invalid email verification token.").WithCode("TOKEN_INVALID")
	}

	err := s.store.UseVerificationToken(ctx, userID, code, s.now())
	if apperr.Is(err, apperr.KindValidation) {
		s.hit(ctx, ratelimit.Verify, key)
		return err
	}
	if err != nil {
		return err
	}
	s.limiter.Reset(ctx, ratelimit.Verify, key)
	s.log.Info("email verified", "user_id", userID)
	return nil
}

// ResendVerification mails a fresh code to an unverified account. Unknown
// addresses succeed silently.
func (s *AuthService) ResendVerification(ctx context.Context, rawEmail string) error {
	email := normalizeEmail(rawEmail)
	if !security.ValidEmail(email) {
		return apperr.Validation("Validation errors occurred.", apperr.FieldError{Field: "email", Message: "Invalid email format."})
	}
	if left := s.limiter.Cooldown(ctx, cooldownVerifyEmail, email); left > 0 {
		return tooManyRequests("verification emails", left)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return apperr.Validation("Email address is already verified.")
	}

	code, err := security.VerificationCode()
	if err != nil {
		return apperr.Internal("generate verification code", err)
	}
	token := &models.EmailVerificationToken{UserID: user.ID, Token: code, ExpiresAt: s.now().Add(s.cfg.VerificationTTL)}
	if err := s.store.SaveVerificationToken(ctx, token); err != nil {
		return err
	}
	if err := s.mail.Send(ctx, mailer.VerificationEmail(email, code, s.cfg.VerificationTTL)); err != nil {
		s.log.Error("resend verification email", "user_id", user.ID, "error", err)
		return apperr.Upstream("Failed to send verification email.", 0, "", err)
	}
	s.limiter.SetCooldown(ctx, cooldownVerifyEmail, email, ratelimit.EmailCooldown)
	return nil
}

// Login checks credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, errInvalidCredentials
	}
	if retry, blocked := s.limiter.Blocked(ctx, ratelimit.Login, email); blocked {
		return nil, tooManyRequests("failed login attempts", retry)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	if user == nil || !security.VerifyPassword(req.Password, user.PasswordHash, user.PasswordSalt) {
		s.hit(ctx, ratelimit.Login, email)
		return nil, errInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, apperr.Forbidden("Email address has not been verified.").WithCode("EMAIL_NOT_VERIFIED")
	}
	s.limiter.Reset(ctx, ratelimit.Login, email)

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}
	s.log.Info("user logged in", "user_id", user.ID)
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// ForgotPassword mails a reset link. Unknown addresses succeed silently so
// the endpoint does not reveal which emails are registered.
func (s *AuthService) ForgotPassword(ctx context.Context, rawEmail, clientIP string) error {
	email := normalizeEmail(rawEmail)
	if !security.ValidEmail(email) {
		return apperr.Validation("Validation errors occurred.", apperr.FieldError{Field: "email", Message: "Invalid email format."})
	}
	if err := s.checkAndHit(ctx, "password reset requests", ratelimit.ResetIP, clientIP); err != nil {
		return err
	}
	if err := s.checkAndHit(ctx, "password reset requests", ratelimit.ResetEmail, email); err != nil {
		return err
	}
	if left := s.limiter.Cooldown(ctx, cooldownResetEmail, email); left > 0 {
		return tooManyRequests("password reset requests", left)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		s.log.Debug("password reset for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	code, err := uniqueCode(ctx, security.ResetCode, s.store.ResetTokenExists)
	if err != nil {
		return err
	}
	token := &models.PasswordResetToken{UserID: user.ID, Token: code, ExpiresAt: s.now().Add(s.cfg.ResetTTL)}
	if err := s.store.SavePasswordResetToken(ctx, token); err != nil {
		return err
	}
	if err := s.mail.Send(ctx, mailer.PasswordResetEmail(email, s.cfg.FrontendURL, code, s.cfg.ResetTTL)); err != nil {
		s.log.Error("send password reset email", "user_id", user.ID, "error", err)
		return apperr.Upstream("Failed to send password reset email.", 0, "", err)
	}
	s.limiter.SetCooldown(ctx, cooldownResetEmail, email, ratelimit.EmailCooldown)
	return nil
}

// VerifyResetToken reports whether code is an unused, unexpired reset code.
func (s *AuthService) VerifyResetToken(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return errResetTokenInvalid
	}
	token, err := s.store.GetPasswordResetToken(ctx, code)
	if apperr.Is(err, apperr.KindNotFound) {
		return errResetTokenInvalid
	}
	if err != nil {
		return err
	}
	if !token.Usable(s.now()) {
		return errResetTokenInvalid
	}
	return nil
}

// ResetPassword consumes the reset code and sets the new password together.
func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	code := strings.ToUpper(strings.TrimSpace(req.Token))
	if code == "" {
		return errResetTokenInvalid
	}
	if err := security.ValidatePassword(req.Password); err != nil {
		return err
	}

	var userID *uuid.UUID
	if raw := strings.TrimSpace(req.UserID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperr.Validation("Validation errors occurred.", apperr.FieldError{Field: "id", Message: "Invalid user id."})
		}
		userID = &id
	}

	hash, salt, err := security.NewPasswordHash(req.Password)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	owner, err := s.store.ResetPasswordWithToken(ctx, code, userID, hash, salt, s.now())
	if err != nil {
		return err
	}
	s.log.Info("password reset", "user_id", owner)
	return nil
}

// checkAndHit rejects a locked key and otherwise records the attempt.
func (s *AuthService) checkAndHit(ctx context.Context, what string, rule ratelimit.Rule, key string) error {
	if retry, blocked := s.limiter.Blocked(ctx, rule, key); blocked {
		return tooManyRequests(what, retry)
	}
	s.hit(ctx, rule, key)
	return nil
}

// hit records an attempt. Limiter failures are logged and let through.
func (s *AuthService) hit(ctx context.Context, rule ratelimit.Rule, key string) {
	if _, _, err := s.limiter.Hit(ctx, rule, key); err != nil {
		s.log.Warn("rate limiter unavailable", "rule", rule.Name, "error", err)
	}
}
