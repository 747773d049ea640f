// Package membership abstracts the platform that owns user accounts.
// The enforcement engine calls it to apply and lift restrictions; the
// moderation pipeline itself never talks to the platform directly.
package membership

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Client applies membership-level restrictions decided by enforcement.
// Implementations must be safe for concurrent use.
type Client interface {
	// Mute prevents a user from posting in a scope for the duration.
	Mute(ctx context.Context, userID, scopeID uint64, duration time.Duration) error
	// Unmute lifts an active mute.
	Unmute(ctx context.Context, userID, scopeID uint64) error
	// Ban removes a user from a scope for the duration.
	Ban(ctx context.Context, userID, scopeID uint64, duration time.Duration) error
	// Unban lifts an active ban.
	Unban(ctx context.Context, userID, scopeID uint64) error
	// NotifyModerators alerts human moderators about an escalated decision.
	NotifyModerators(ctx context.Context, scopeID uint64, message string) error
	// IsModerator reports whether the user holds moderator rights in a scope.
	IsModerator(ctx context.Context, userID, scopeID uint64) (bool, error)
}

// NoopClient logs requested actions without performing them. Used in
// development and as the default until a platform adapter is wired in.
type NoopClient struct {
	logger *zap.Logger
}

// NewNoopClient creates a client that only logs.
func NewNoopClient(logger *zap.Logger) *NoopClient {
	return &NoopClient{logger: logger.Named("membership")}
}

func (c *NoopClient) Mute(_ context.Context, userID, scopeID uint64, duration time.Duration) error {
	c.logger.Info("Mute requested",
		zap.Uint64("userID", userID),
		zap.Uint64("scopeID", scopeID),
		zap.Duration("duration", duration))

	return nil
}

func (c *NoopClient) Unmute(_ context.Context, userID, scopeID uint64) error {
	c.logger.Info("Unmute requested",
		zap.Uint64("userID", userID),
		zap.Uint64("scopeID", scopeID))

	return nil
}

func (c *NoopClient) Ban(_ context.Context, userID, scopeID uint64, duration time.Duration) error {
	c.logger.Info("Ban requested",
		zap.Uint64("userID", userID),
		zap.Uint64("scopeID", scopeID),
		zap.Duration("duration", duration))

	return nil
}

func (c *NoopClient) Unban(_ context.Context, userID, scopeID uint64) error {
	c.logger.Info("Unban requested",
		zap.Uint64("userID", userID),
		zap.Uint64("scopeID", scopeID))

	return nil
}

func (c *NoopClient) NotifyModerators(_ context.Context, scopeID uint64, message string) error {
	c.logger.Info("Moderator notification requested",
		zap.Uint64("scopeID", scopeID),
		zap.String("message", message))

	return nil
}

func (c *NoopClient) IsModerator(_ context.Context, _, _ uint64) (bool, error) {
	return false, nil
}
