package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

const (
	OpChallenge = "challenge"
	OpVerify    = "verify"
	OpRefresh   = "refresh"
	OpLogout    = "logout"
	OpMe        = "me"

	OutcomeSuccess      = "success"
	OutcomeUnauthorized = "unauthorized"
	OutcomeRateLimited  = "rate_limited"
	OutcomeError        = "error"
)

// OutcomeRecorder counts operation results
type OutcomeRecorder interface {
	RecordOutcome(operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordOutcome(string, string) {}

// AuthService handles authentication business logic
type AuthService struct {
	users      ports.UserStore
	verifier   ports.SignatureVerifier
	challenges *ChallengeManager
	issuer     *TokenIssuer

	limiter  ports.AttemptLimiter
	eventPub ports.EventPublisher
	recorder OutcomeRecorder
	logger   logrus.FieldLogger
	now      func() time.Time
}

// Option configures optional AuthService collaborators
type Option func(*AuthService)

// WithLimiter bounds failed verification attempts per wallet
func WithLimiter(l ports.AttemptLimiter) Option {
	return func(s *AuthService) { s.limiter = l }
}

// WithEventPublisher publishes login, refresh and logout events
func WithEventPublisher(p ports.EventPublisher) Option {
	return func(s *AuthService) { s.eventPub = p }
}

// WithRecorder counts operation outcomes
func WithRecorder(r OutcomeRecorder) Option {
	return func(s *AuthService) { s.recorder = r }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *AuthService) { s.logger = l }
}

// WithClock overrides the time source of the service and its components
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) {
		s.now = now
		s.challenges.now = now
		s.issuer.now = now
	}
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users ports.UserStore,
	verifier ports.SignatureVerifier,
	challenges *ChallengeManager,
	issuer *TokenIssuer,
	opts ...Option,
) *AuthService {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &AuthService{
		users:      users,
		verifier:   verifier,
		challenges: challenges,
		issuer:     issuer,
		limiter:    ports.NoopLimiter{},
		eventPub:   ports.NoopPublisher{},
		recorder:   nopRecorder{},
		logger:     discard,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateChallenge issues a new nonce for the wallet
func (s *AuthService) GenerateChallenge(ctx context.Context, walletAddress string) (*core.Challenge, error) {
	if !s.verifier.ValidAddress(walletAddress) {
		s.recorder.RecordOutcome(OpChallenge, OutcomeError)
		return nil, core.ErrInvalidAddress
	}

	challenge, err := s.challenges.Issue(ctx, s.verifier.Normalize(walletAddress))
	if err != nil {
		return nil, s.internal(OpChallenge, err)
	}

	s.recorder.RecordOutcome(OpChallenge, OutcomeSuccess)
	return challenge, nil
}

// VerifySignature checks the signed challenge and issues a token pair.
// Every rejection is reported as core.ErrUnauthorized.
func (s *AuthService) VerifySignature(ctx context.Context, walletAddress, signature, publicKey string) (*core.TokenPair, error) {
	walletAddress = s.verifier.Normalize(walletAddress)
	publicKey = s.verifier.Normalize(publicKey)
	log := s.logger.WithField("wallet_address", walletAddress)

	allowed, err := s.limiter.Allow(ctx, walletAddress)
	if err != nil {
		return nil, s.internal(OpVerify, fmt.Errorf("failed to check attempt limit: %w", err))
	}
	if !allowed {
		log.WithField("reason", core.ErrTooManyAttempts.Error()).Warn("verify rejected")
		s.recorder.RecordOutcome(OpVerify, OutcomeRateLimited)
		return nil, core.ErrUnauthorized
	}

	user, err := s.users.GetByAddress(ctx, walletAddress)
	if errors.Is(err, core.ErrNotFound) {
		return nil, s.reject(log, OpVerify, "unknown wallet")
	}
	if err != nil {
		return nil, s.internal(OpVerify, err)
	}
	if !user.IsActive {
		return nil, s.reject(log, OpVerify, "inactive user")
	}
	if !user.HasPendingNonce() {
		return nil, s.reject(log, OpVerify, "no pending challenge")
	}

	nonce := *user.Nonce
	message := s.challenges.Message(nonce)

	if publicKey != walletAddress || !s.verifier.Verify(message, signature, publicKey) {
		if err := s.limiter.RecordFailure(ctx, walletAddress); err != nil {
			log.WithError(err).Error("failed to record verify failure")
		}
		return nil, s.reject(log, OpVerify, core.ErrInvalidSignature.Error())
	}

	// a concurrent verify or a newer challenge wins the swap
	err = s.users.ClearNonce(ctx, user.ID, nonce)
	if errors.Is(err, core.ErrNonceMismatch) || errors.Is(err, core.ErrNotFound) {
		return nil, s.reject(log, OpVerify, "nonce already used")
	}
	if err != nil {
		return nil, s.internal(OpVerify, err)
	}

	pair, err := s.issuer.IssuePair(ctx, user.ID, user.WalletAddress)
	if err != nil {
		return nil, s.internal(OpVerify, err)
	}

	if err := s.limiter.Reset(ctx, walletAddress); err != nil {
		log.WithError(err).Warn("failed to reset verify attempts")
	}
	s.publish(log, OpVerify, s.eventPub.PublishLogin(ctx, user.ID, user.WalletAddress))

	log.WithField("user_id", user.ID).Info("wallet authenticated")
	s.recorder.RecordOutcome(OpVerify, OutcomeSuccess)
	return pair, nil
}

// RefreshAccessToken rotates a refresh token into a new token pair.
// The presented token is invalidated even when the refresh is rejected.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*core.TokenPair, error) {
	log := s.logger.WithField("operation", OpRefresh)

	record, err := s.issuer.Consume(ctx, refreshToken)
	if errors.Is(err, core.ErrNotFound) {
		return nil, s.reject(log, OpRefresh, "unknown or used refresh token")
	}
	if err != nil {
		return nil, s.internal(OpRefresh, err)
	}

	log = log.WithField("user_id", record.UserID)
	if record.Expired(s.now()) {
		return nil, s.reject(log, OpRefresh, "refresh token expired")
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, s.reject(log, OpRefresh, "unknown user")
	}
	if err != nil {
		return nil, s.internal(OpRefresh, err)
	}
	if !user.IsActive {
		return nil, s.reject(log, OpRefresh, "inactive user")
	}

	pair, err := s.issuer.IssuePair(ctx, user.ID, user.WalletAddress)
	if err != nil {
		return nil, s.internal(OpRefresh, err)
	}

	s.publish(log, OpRefresh, s.eventPub.PublishRefresh(ctx, user.ID))
	s.recorder.RecordOutcome(OpRefresh, OutcomeSuccess)
	return pair, nil
}

// Logout invalidates a refresh token. It never fails: unknown tokens are
// already unusable and store errors are only logged.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	log := s.logger.WithField("operation", OpLogout)

	record, err := s.issuer.Consume(ctx, refreshToken)
	if errors.Is(err, core.ErrNotFound) {
		s.recorder.RecordOutcome(OpLogout, OutcomeSuccess)
		return
	}
	if err != nil {
		log.WithError(err).Error("failed to invalidate refresh token")
		s.recorder.RecordOutcome(OpLogout, OutcomeError)
		return
	}

	s.publish(log, OpLogout, s.eventPub.PublishLogout(ctx, record.UserID))
	s.recorder.RecordOutcome(OpLogout, OutcomeSuccess)
}

// GetCurrentUser returns the authenticated user
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*core.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, s.reject(s.logger.WithField("user_id", userID), OpMe, "unknown user")
	}
	if err != nil {
		return nil, s.internal(OpMe, err)
	}

	s.recorder.RecordOutcome(OpMe, OutcomeSuccess)
	return user, nil
}

// ValidateAccessToken resolves a bearer token to an identity
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Identity, error) {
	return s.issuer.ValidateAccessToken(accessToken)
}

// DeactivateUser soft-deletes a user; outstanding refresh tokens stop working
func (s *AuthService) DeactivateUser(ctx context.Context, userID string) error {
	if err := s.users.Deactivate(ctx, userID); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	s.logger.WithField("user_id", userID).Info("user deactivated")
	return nil
}

func (s *AuthService) reject(log logrus.FieldLogger, op, reason string) error {
	log.WithField("reason", reason).Debug(op + " rejected")
	s.recorder.RecordOutcome(op, OutcomeUnauthorized)
	return core.ErrUnauthorized
}

func (s *AuthService) internal(op string, err error) error {
	s.logger.WithError(err).WithField("operation", op).Error("auth operation failed")
	s.recorder.RecordOutcome(op, OutcomeError)
	return err
}

func (s *AuthService) publish(log logrus.FieldLogger, op string, err error) {
	if err != nil {
		log.WithError(err).WithField("operation", op).Warn("failed to publish auth event")
	}
}
