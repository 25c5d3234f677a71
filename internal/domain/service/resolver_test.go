package service_test

import (
	"testing"

	"github.com/Insanely-69/CelestialSword2/internal/domain/service"
)

func TestResolverMentionWinsOverNameMatch(t *testing.T) {
	resolver := service.NewResolver()
	roster := map[string]string{
		"111": "ShadowBlade",
		"222": "DragonFist",
	}

	// The text mentions ShadowBlade by name, but the explicit mention of
	// DragonFist must win.
	identity, ok := resolver.Resolve(
		[]string{"<@222>"},
		"ShadowBlade donated 100 coins",
		roster,
	)
	if !ok {
		t.Fatal("expected a player to be resolved")
	}
	if identity != "222" {
		t.Errorf("expected mention to win with identity 222, got %s", identity)
	}
}

func TestResolverNicknameMentionForm(t *testing.T) {
	resolver := service.NewResolver()
	roster := map[string]string{"333": "MoonArcher"}

	identity, ok := resolver.Resolve([]string{"<@!333>"}, "", roster)
	if !ok || identity != "333" {
		t.Errorf("expected nickname mention form to resolve to 333, got %s (ok=%v)", identity, ok)
	}
}

func TestResolverUnregisteredMentionFallsBackToName(t *testing.T) {
	resolver := service.NewResolver()
	roster := map[string]string{"111": "ShadowBlade"}

	identity, ok := resolver.Resolve(
		[]string{"<@999>"},
		"shadowblade donated 100 coins",
		roster,
	)
	if !ok || identity != "111" {
		t.Errorf("expected fallback name match to 111, got %s (ok=%v)", identity, ok)
	}
}

func TestResolverDecoratedNameMatches(t *testing.T) {
	resolver := service.NewResolver()
	roster := map[string]string{"444": "⚔️Iron  Will⚔️"}

	// Decoration is stripped and whitespace collapsed before searching.
	identity, ok := resolver.Resolve(nil, "Iron Will deposited 60 coins", roster)
	if !ok || identity != "444" {
		t.Errorf("expected decorated name to match identity 444, got %s (ok=%v)", identity, ok)
	}
}

func TestResolverNoMatch(t *testing.T) {
	resolver := service.NewResolver()
	roster := map[string]string{"111": "ShadowBlade"}

	if identity, ok := resolver.Resolve(nil, "StormCaller donated 100 coins", roster); ok {
		t.Errorf("expected no match, got identity %s", identity)
	}
}

func TestNormalizeMention(t *testing.T) {
	if got := service.NormalizeMention("<@123456>"); got != "123456" {
		t.Errorf("expected 123456, got %s", got)
	}
	if got := service.NormalizeMention("<@!123456>"); got != "123456" {
		t.Errorf("expected 123456, got %s", got)
	}
	if got := service.NormalizeMention("123456"); got != "123456" {
		t.Errorf("expected bare identity to pass through, got %s", got)
	}
}

func TestCleanPlayerName(t *testing.T) {
	if got := service.CleanPlayerName("  ⚡Storm   Caller⚡  "); got != "Storm Caller" {
		t.Errorf("expected %q, got %q", "Storm Caller", got)
	}
}
