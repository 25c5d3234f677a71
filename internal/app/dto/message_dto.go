package dto

import (
	"time"

	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
)

// ChatMessageDTO represents a chat event on the wire.
type ChatMessageDTO struct {
	ID               string    `json:"id"`
	Guild            string    `json:"guild"`
	Channel          string    `json:"channel"`
	Sender           string    `json:"sender"`
	Content          string    `json:"content"`
	Mentions         []string  `json:"mentions,omitempty"`
	EmbedTitle       string    `json:"embed_title,omitempty"`
	EmbedDescription string    `json:"embed_description,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// ToModel converts a ChatMessageDTO to a domain model
func (dto *ChatMessageDTO) ToModel() *model.ChatMessage {
	return &model.ChatMessage{
		ID:               dto.ID,
		Guild:            dto.Guild,
		Channel:          dto.Channel,
		Sender:           dto.Sender,
		Content:          dto.Content,
		Mentions:         dto.Mentions,
		EmbedTitle:       dto.EmbedTitle,
		EmbedDescription: dto.EmbedDescription,
		Timestamp:        dto.Timestamp,
	}
}

// FromModel creates a ChatMessageDTO from a domain model
func FromModel(msg *model.ChatMessage) *ChatMessageDTO {
	return &ChatMessageDTO{
		ID:               msg.ID,
		Guild:            msg.Guild,
		Channel:          msg.Channel,
		Sender:           msg.Sender,
		Content:          msg.Content,
		Mentions:         msg.Mentions,
		EmbedTitle:       msg.EmbedTitle,
		EmbedDescription: msg.EmbedDescription,
		Timestamp:        msg.Timestamp,
	}
}

func FromModels(msgs []*model.ChatMessage) []*ChatMessageDTO {
	dtos := make([]*ChatMessageDTO, len(msgs))
	for i, msg := range msgs {
		dtos[i] = FromModel(msg)
	}
	return dtos
}

// LeaderboardEntryDTO is one ranked row of a leaderboard response.
type LeaderboardEntryDTO struct {
	Rank         string `json:"rank"`
	Name         string `json:"name"`
	WeeklyAmount int64  `json:"weekly_amount"`
	TotalAmount  int64  `json:"total_amount"`
	Donations    int    `json:"donations"`
	TimeLeft     string `json:"time_left"`
}
