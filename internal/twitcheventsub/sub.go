package twitcheventsub

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/env"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"github.com/ichi0g0y/chill-roulette/internal/twitchtoken"
	"github.com/joeyak/go-twitch-eventsub/v3"
	"go.uber.org/zap"
)

var (
	mu          sync.Mutex
	client      *twitch.Client
	isRunning   bool
	isConnected bool
	lastError   error
)

func setConnected(connected bool, err error) {
	mu.Lock()
	defer mu.Unlock()
	isConnected = connected
	if err != nil || connected {
		lastError = err
	}
}

// Start starts the EventSub client
func Start() error {
	mu.Lock()
	running := isRunning
	mu.Unlock()
	if running {
		return nil
	}
	if !env.Value.TwitchConfigured() {
		return errors.New("twitch credentials not configured")
	}

	token, valid, err := twitchtoken.GetLatestToken()
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("no access token available")
	}

	// トークンの有効期限をチェック
	if !valid {
		logger.Info("Token expired or about to expire, refreshing...")
		if err := token.RefreshTwitchToken(); err != nil {
			return fmt.Errorf("failed to refresh token: %w", err)
		}
		logger.Info("Token refreshed successfully")
	} else if untilExpiry := token.ExpiresAt - time.Now().Unix(); untilExpiry <= 30*60 {
		// 期限が30分以内の場合も事前にリフレッシュ
		logger.Info("Token expires in less than 30 minutes, refreshing proactively...",
			zap.Int64("seconds_until_expiry", untilExpiry))
		if err := token.RefreshTwitchToken(); err != nil {
			// まだ有効なトークンがあるので続行
			logger.Warn("Failed to refresh token proactively", zap.Error(err))
		}
	}
	if !token.HasScopes() {
		logger.Warn("Stored token is missing scopes, re-authenticate via /auth", zap.String("scope", token.Scope))
	}

	c := SetupEventSub(token)

	mu.Lock()
	client = c
	isRunning = true
	mu.Unlock()

	go func() {
		logger.Info("Connecting to EventSub...")
		if err := c.Connect(); err != nil {
			logger.Error("Failed to connect EventSub", zap.Error(err))
			setConnected(false, err)
		}
	}()
	return nil
}

// Stop stops the EventSub client
func Stop() {
	mu.Lock()
	c := client
	running := isRunning
	client = nil
	isRunning = false
	isConnected = false
	mu.Unlock()

	if c != nil && running {
		c.Close()
		logger.Info("EventSub stopped")
	}
}

func IsConnected() bool {
	mu.Lock()
	defer mu.Unlock()
	return isConnected
}

func GetLastError() error {
	mu.Lock()
	defer mu.Unlock()
	return lastError
}

// SetupEventSub builds a client that subscribes to channel point redemptions on welcome.
func SetupEventSub(token twitchtoken.Token) *twitch.Client {
	c := twitch.NewClient()

	c.OnError(func(err error) {
		logger.Error("EventSub error", zap.Error(err))
		setConnected(false, err)
	})
	c.OnWelcome(func(message twitch.WelcomeMessage) {
		logger.Info("EventSub connected successfully")
		setConnected(true, nil)

		event := twitch.SubChannelChannelPointsCustomRewardRedemptionAdd
		_, err := twitch.SubscribeEvent(twitch.SubscribeRequest{
			SessionID:   message.Payload.Session.ID,
			ClientID:    *env.Value.ClientID,
			AccessToken: token.AccessToken,
			Event:       event,
			Condition: map[string]string{
				"broadcaster_user_id": *env.Value.TwitchUserID,
			},
		})
		if err != nil {
			logger.Error("Failed to subscribe to event", zap.String("event", string(event)), zap.Error(err))
			setConnected(true, err)
			return
		}
		logger.Info("Successfully subscribed to event", zap.String("event", string(event)))
	})
	c.OnNotification(func(message twitch.NotificationMessage) {
		if message.Payload.Event == nil {
			return
		}
		switch message.Payload.Subscription.Type {
		case twitch.SubChannelChannelPointsCustomRewardRedemptionAdd:
			var evt twitch.EventChannelChannelPointsCustomRewardRedemptionAdd
			if err := json.Unmarshal(*message.Payload.Event, &evt); err != nil {
				logger.Error("Failed to parse channel points custom reward event", zap.Error(err))
				return
			}
			HandleChannelPointsCustomRedemptionAdd(evt)
		default:
			logger.Debug("Unhandled EventSub notification",
				zap.String("type", string(message.Payload.Subscription.Type)))
		}
	})
	c.OnKeepAlive(func(message twitch.KeepAliveMessage) {
		// KeepAliveを受信 - 接続は正常
		mu.Lock()
		isConnected = true
		mu.Unlock()
	})
	c.OnRevoke(func(message twitch.RevokeMessage) {
		logger.Warn("EventSub subscription revoked",
			zap.String("type", string(message.Payload.Subscription.Type)),
			zap.String("status", message.Payload.Subscription.Status))
		setConnected(false, fmt.Errorf("subscription revoked: %s", message.Payload.Subscription.Status))
	})

	// Connect処理はStart()関数で行う
	return c
}
