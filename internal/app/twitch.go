package app

import (
	"context"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/env"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"github.com/ichi0g0y/chill-roulette/internal/twitcheventsub"
	"github.com/ichi0g0y/chill-roulette/internal/twitchtoken"
	"go.uber.org/zap"
)

const (
	refreshAhead     = 30 * time.Minute
	maxRefreshWait   = time.Hour
	tokenMissingWait = time.Minute
	refreshRetryWait = 5 * time.Minute
)

// startTwitchBackground starts EventSub and the refresh loop once a usable token exists.
func (a *App) startTwitchBackground() {
	if !env.Value.TwitchConfigured() {
		logger.Info("Twitch credentials not configured, add them with PUT /api/settings")
		return
	}

	token, isValid, err := twitchtoken.GetOrRefreshToken()
	if err != nil || !isValid || token.AccessToken == "" {
		logger.Info("No valid Twitch token, authorize via /auth")
		return
	}

	if !a.twitchStarted.CompareAndSwap(false, true) {
		return
	}
	logger.Info("Twitch token ready, starting EventSub and the refresh loop",
		zap.Time("expires_at", time.Unix(token.ExpiresAt, 0)))

	go func() {
		if err := twitcheventsub.Start(); err != nil {
			logger.Error("Failed to start EventSub", zap.Error(err))
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		keepTokenFresh(a.ctx)
	}()
}

// refreshPlan says whether to refresh now and, if not, how long to wait.
func refreshPlan(untilExpiry time.Duration) (refreshNow bool, wait time.Duration) {
	if untilExpiry <= refreshAhead {
		return true, 0
	}
	wait = untilExpiry - refreshAhead
	if wait > maxRefreshWait {
		wait = maxRefreshWait
	}
	return false, wait
}

// keepTokenFresh refreshes the stored token ahead of expiry until ctx is done.
// EventSub is restarted after every refresh so the new token is used for the subscription.
func keepTokenFresh(ctx context.Context) {
	logger.Debug("Token refresh loop started")
	defer logger.Debug("Token refresh loop stopped")

	for {
		wait := tokenMissingWait

		if token, _, err := twitchtoken.GetLatestToken(); err == nil {
			untilExpiry := time.Until(time.Unix(token.ExpiresAt, 0))
			refreshNow, next := refreshPlan(untilExpiry)
			wait = next

			if refreshNow {
				logger.Info("Refreshing Twitch token", zap.Duration("until_expiry", untilExpiry))
				if err := token.RefreshTwitchToken(); err != nil {
					logger.Error("Failed to refresh token", zap.Error(err))
					wait = refreshRetryWait
				} else {
					restartEventSub(ctx)
					continue
				}
			} else {
				logger.Debug("Next token refresh check", zap.Duration("wait", wait))
			}
		}

		if !sleepCtx(ctx, wait) {
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func restartEventSub(ctx context.Context) {
	logger.Info("Restarting EventSub")
	twitcheventsub.Stop()
	// 古い接続が閉じるのを待つ
	if !sleepCtx(ctx, restartDelay) {
		return
	}
	if err := twitcheventsub.Start(); err != nil {
		logger.Error("Failed to restart EventSub", zap.Error(err))
	}
}
