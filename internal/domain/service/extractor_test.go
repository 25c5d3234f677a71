package service_test

import (
	"testing"

	"github.com/Insanely-69/CelestialSword2/internal/domain/service"
)

func TestExtractorPhrasings(t *testing.T) {
	extractor := service.NewExtractor()

	cases := []struct {
		text   string
		amount int64
	}{
		{"ShadowBlade donated **5,000** gold to the clan!", 5000},
		{"You have donated **12,345** gold", 12345},
		{"DragonFist donated 300 coins", 300},
		{"MoonArcher contributed 1,500 coins to the war effort", 1500},
		{"IronWill gave 42 coins", 42},
		{"777 coins donated by StormCaller", 777},
		{"sent 2,000 coins to the clan", 2000},
		{"Clan donation received: ShadowBlade sent 950", 950},
		{"100 coins added to clan vault", 100},
		{"the clan treasury grew by 8,888", 8888},
		{"250 coins clan donation", 250},
		{"deposited 60 coins into the treasury", 60},
		{"75 coins deposited by DragonFist", 75},
		{"500 rubies donated", 500},
		{"donated 1,250 rubies", 1250},
		{"900 rubies to the clan", 900},
		{"333 rubies added to clan stash", 333},
	}

	for _, tc := range cases {
		amount, ok := extractor.Extract(tc.text)
		if !ok {
			t.Errorf("expected %q to be detected as a donation", tc.text)
			continue
		}
		if amount != tc.amount {
			t.Errorf("expected amount %d for %q, got %d", tc.amount, tc.text, amount)
		}
	}
}

func TestExtractorRejectsNonDonations(t *testing.T) {
	extractor := service.NewExtractor()

	cases := []string{
		"",
		"ShadowBlade defeated the world boss!",
		"welcome DragonFist to the raid lobby",
		"the auction sold for 5,000 gold", // amount but no donation keyword
		"please consider a donation",      // keyword but no amount
	}

	for _, text := range cases {
		if amount, ok := extractor.Extract(text); ok {
			t.Errorf("expected %q to be rejected, got amount %d", text, amount)
		}
	}
}

func TestExtractorCaseInsensitive(t *testing.T) {
	extractor := service.NewExtractor()

	amount, ok := extractor.Extract("SHADOWBLADE DONATED **1,000** GOLD")
	if !ok || amount != 1000 {
		t.Fatalf("expected 1000 from uppercase text, got %d (ok=%v)", amount, ok)
	}
}

func TestExtractorRulePriority(t *testing.T) {
	extractor := service.NewExtractor()

	// The bold-gold phrasing outranks the looser clan-treasury rule even when
	// both amounts are present.
	amount, ok := extractor.Extract("donated **5,000** gold, clan treasury now 99,999")
	if !ok {
		t.Fatal("expected a donation to be detected")
	}
	if amount != 5000 {
		t.Errorf("expected the higher-priority rule to win with 5000, got %d", amount)
	}
}

func TestExtractFromSourcesPrecedence(t *testing.T) {
	extractor := service.NewExtractor()

	// Body wins over embed description, description over title.
	amount, ok := extractor.ExtractFromSources(
		"donated 100 coins",
		"donated 200 coins",
		"donated 300 coins",
	)
	if !ok || amount != 100 {
		t.Errorf("expected body amount 100, got %d (ok=%v)", amount, ok)
	}

	amount, ok = extractor.ExtractFromSources(
		"just chatting",
		"donated 200 coins",
		"donated 300 coins",
	)
	if !ok || amount != 200 {
		t.Errorf("expected embed description amount 200, got %d (ok=%v)", amount, ok)
	}

	amount, ok = extractor.ExtractFromSources("", "", "donated 300 coins")
	if !ok || amount != 300 {
		t.Errorf("expected embed title amount 300, got %d (ok=%v)", amount, ok)
	}
}
