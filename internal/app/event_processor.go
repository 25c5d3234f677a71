package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Insanely-69/CelestialSword2/internal/app/dto"
	"github.com/Insanely-69/CelestialSword2/internal/domain/service"
	"github.com/Insanely-69/CelestialSword2/internal/domain/useCases"
)

// ErrContextCancelled is returned when the context is cancelled during processing
var ErrContextCancelled = errors.New("context cancelled during processing")

// Outcome classifies what happened to one inbound chat message. Tests and
// callers branch on the kind instead of inspecting side effects.
type Outcome int

const (
	// OutcomeRecorded means a donation was detected, attributed and durably recorded.
	OutcomeRecorded Outcome = iota
	// OutcomeNotDonation means no extraction rule matched; the normal case.
	OutcomeNotDonation
	// OutcomeUnattributed means an amount was detected but no registered
	// player could be identified. Distinct from OutcomeNotDonation so hosts
	// can flag these for manual review.
	OutcomeUnattributed
	// OutcomeIgnored means the message was filtered out before extraction
	// (wrong source, wrong channel, or a redelivered transport message).
	OutcomeIgnored
	// OutcomeFailed means the donation could not be durably recorded.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRecorded:
		return "recorded"
	case OutcomeNotDonation:
		return "not_donation"
	case OutcomeUnattributed:
		return "unattributed"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventProcessor consumes chat messages from a channel, detects donation
// announcements, attributes them to registered players and records them in
// the ledger. Recorded donations trigger a leaderboard broadcast.
type EventProcessor struct {
	MsgCh       chan *dto.ChatMessageDTO
	Ledger      useCases.DonationLedger
	Directory   *service.DirectoryService
	Extractor   *service.Extractor
	Resolver    *service.Resolver
	Broadcaster useCases.Broadcaster

	// SourceBot / SourceChannel restrict which messages are considered.
	// Empty means no restriction.
	SourceBot     string
	SourceChannel string

	DedupCache map[string]struct{} // transport message IDs already processed
}

func NewEventProcessor(msgCh chan *dto.ChatMessageDTO, ledger useCases.DonationLedger, directory *service.DirectoryService, broadcaster useCases.Broadcaster, sourceBot, sourceChannel string) *EventProcessor {
	return &EventProcessor{
		MsgCh:         msgCh,
		Ledger:        ledger,
		Directory:     directory,
		Extractor:     service.NewExtractor(),
		Resolver:      service.NewResolver(),
		Broadcaster:   broadcaster,
		SourceBot:     sourceBot,
		SourceChannel: sourceChannel,
		DedupCache:    make(map[string]struct{}),
	}
}

func (p *EventProcessor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-p.MsgCh:
			outcome, err := p.ProcessMessage(ctx, msg)
			if err != nil {
				if errors.Is(err, ErrContextCancelled) {
					log.Println("Context cancelled, stopping event processor")
					return ctx.Err()
				}
				// Other errors are just logged but processing continues
				log.Printf("Error processing message (%s): %v", outcome, err)
				continue
			}
			if outcome == OutcomeUnattributed {
				log.Printf("Donation detected but no registered player matched (message %s)", msg.ID)
			}
		}
	}
}

// ProcessMessage handles a single chat message and reports what became of it.
// Only OutcomeFailed carries an error.
func (p *EventProcessor) ProcessMessage(ctx context.Context, msgDto *dto.ChatMessageDTO) (Outcome, error) {
	// Check context before starting
	if ctx.Err() != nil {
		return OutcomeIgnored, ErrContextCancelled
	}

	if msgDto == nil {
		return OutcomeIgnored, nil
	}

	if p.SourceBot != "" && msgDto.Sender != p.SourceBot {
		return OutcomeIgnored, nil
	}
	if p.SourceChannel != "" && msgDto.Channel != p.SourceChannel {
		return OutcomeIgnored, nil
	}

	// Transport-level redelivery guard. Identical text in distinct messages
	// still counts twice; only the same transport message is dropped.
	if msgDto.ID != "" {
		if _, exists := p.DedupCache[msgDto.ID]; exists {
			return OutcomeIgnored, nil
		}
		p.DedupCache[msgDto.ID] = struct{}{}
	}

	msg := msgDto.ToModel()

	amount, ok := p.Extractor.ExtractFromSources(msg.Content, msg.EmbedDescription, msg.EmbedTitle)
	if !ok {
		return OutcomeNotDonation, nil
	}

	searchable := strings.Join([]string{msg.Content, msg.EmbedDescription, msg.EmbedTitle}, " ")
	roster := p.Directory.Roster(msg.Guild)

	identity, ok := p.Resolver.Resolve(msg.Mentions, searchable, roster)
	if !ok {
		return OutcomeUnattributed, nil
	}
	name := roster[identity]

	// Check context before mutating the ledger
	if ctx.Err() != nil {
		return OutcomeIgnored, ErrContextCancelled
	}

	when := msg.Timestamp
	if when.IsZero() {
		when = time.Now().UTC()
	}

	if err := p.Ledger.Record(ctx, msg.Guild, identity, name, amount, when); err != nil {
		return OutcomeFailed, err
	}

	log.Printf("Recorded donation: %s donated %d in guild %s", name, amount, msg.Guild)

	// Broadcast the refreshed leaderboard
	snap, err := p.Ledger.Snapshot(ctx, msg.Guild)
	if err == nil && snap != nil {
		p.Broadcaster.BroadcastLeaderboard(snap)
	}

	return OutcomeRecorded, nil
}
