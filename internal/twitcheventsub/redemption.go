package twitcheventsub

import (
	"strings"
	"sync"

	"github.com/ichi0g0y/chill-roulette/internal/roulette"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"github.com/joeyak/go-twitch-eventsub/v3"
	"go.uber.org/zap"
)

// Sink receives redemptions that passed the reward filter.
type Sink interface {
	Enqueue(event roulette.RedemptionEvent) roulette.RedemptionEvent
}

// TriggerSource returns the configured reward ID and title. Both may be empty.
type TriggerSource interface {
	RewardTrigger() (rewardID, rewardTitle string)
}

var (
	handlerMu sync.RWMutex
	sink      Sink
	trigger   TriggerSource
)

// SetSink wires the feed to the orchestrator. Redemptions arriving before this are dropped.
func SetSink(s Sink, t TriggerSource) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	sink = s
	trigger = t
}

// HandleChannelPointsCustomRedemptionAdd filters and forwards one redemption.
func HandleChannelPointsCustomRedemptionAdd(message twitch.EventChannelChannelPointsCustomRewardRedemptionAdd) {
	handlerMu.RLock()
	s, t := sink, trigger
	handlerMu.RUnlock()

	if s == nil {
		logger.Warn("Redemption received before the roulette was ready", zap.String("id", message.ID))
		return
	}

	rewardID, rewardTitle := "", ""
	if t != nil {
		rewardID, rewardTitle = t.RewardTrigger()
	}
	if !MatchesTrigger(message, rewardID, rewardTitle) {
		logger.Debug("Skipping non-trigger reward",
			zap.String("rewardId", message.Reward.ID),
			zap.String("rewardTitle", message.Reward.Title))
		return
	}

	s.Enqueue(ToRedemptionEvent(message))
}

// MatchesTrigger applies the reward filter: ID first, then title, else everything.
func MatchesTrigger(message twitch.EventChannelChannelPointsCustomRewardRedemptionAdd, rewardID, rewardTitle string) bool {
	if id := strings.TrimSpace(rewardID); id != "" {
		return message.Reward.ID == id
	}
	if title := strings.TrimSpace(rewardTitle); title != "" {
		return strings.EqualFold(strings.TrimSpace(message.Reward.Title), title)
	}
	return true
}

func ToRedemptionEvent(message twitch.EventChannelChannelPointsCustomRewardRedemptionAdd) roulette.RedemptionEvent {
	username := message.User.UserName
	if strings.TrimSpace(username) == "" {
		username = message.User.UserLogin
	}
	return roulette.NewRedemptionEvent(roulette.RedemptionEvent{
		ID:         message.ID,
		Username:   username,
		UserID:     message.User.UserID,
		RewardID:   message.Reward.ID,
		RewardName: message.Reward.Title,
		UserInput:  message.UserInput,
		Timestamp:  message.RedeemedAt,
	})
}
