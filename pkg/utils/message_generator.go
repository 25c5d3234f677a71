package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
)

// MessageGenerator produces synthetic game-bot chatter for demo and load
// testing. Roughly half the messages are donation announcements; the rest
// should be rejected by the extractor.
type MessageGenerator struct {
	Guild   string
	Channel string
	Sender  string
}

func NewMessageGenerator(guild, channel, sender string) *MessageGenerator {
	return &MessageGenerator{Guild: guild, Channel: channel, Sender: sender}
}

var donationTemplates = []string{
	"%s donated **%s** gold to the clan!",
	"%s contributed %s coins to the war effort",
	"%s gave %s coins",
	"%s deposited %s coins into the clan treasury",
	"clan donation received: %s sent %s",
}

var chatterTemplates = []string{
	"%s defeated the world boss!",
	"%s joined the raid lobby",
	"%s rolled a legendary drop",
	"welcome %s to the clan!",
}

var demoPlayers = []string{
	"ShadowBlade", "DragonFist", "MoonArcher", "IronWill", "StormCaller",
}

// GenerateMessages creates a batch of synthetic chat messages.
func (g *MessageGenerator) GenerateMessages(count int) []*model.ChatMessage {
	msgs := make([]*model.ChatMessage, count)
	for i := 0; i < count; i++ {
		player := demoPlayers[i%len(demoPlayers)]
		amount := FormatNumber(int64(100 + (time.Now().Nanosecond()+i*997)%25000))

		var content string
		if i%2 == 0 {
			content = fmt.Sprintf(donationTemplates[i%len(donationTemplates)], player, amount)
		} else {
			content = fmt.Sprintf(chatterTemplates[i%len(chatterTemplates)], player)
		}

		msgs[i] = &model.ChatMessage{
			ID:        uuid.New().String(),
			Guild:     g.Guild,
			Channel:   g.Channel,
			Sender:    g.Sender,
			Content:   content,
			Timestamp: time.Now().UTC(),
		}
	}
	return msgs
}
