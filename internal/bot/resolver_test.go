package bot

import (
	"reflect"
	"testing"

	"github.com/Irfan430/wp-bot/internal/bus"
	"github.com/Irfan430/wp-bot/internal/config"
)

func TestResolveInvocationPrefix(t *testing.T) {
	cfg := config.PrefixConfig{Global: "!"}

	tests := []struct {
		name     string
		body     string
		wantWord string
		wantArgs []string
		wantOK   bool
	}{
		{"simple", "!ping", "ping", []string{}, true},
		{"with args", "!ban 123@s.whatsapp.net spamming a lot", "ban", []string{"123@s.whatsapp.net", "spamming", "a", "lot"}, true},
		{"uppercase word", "!PING", "ping", []string{}, true},
		{"leading whitespace", "  !help  ", "help", []string{}, true},
		{"prefix only", "!", "", nil, false},
		{"prefix then spaces", "!   ", "", nil, false},
		{"no prefix", "hello there", "", nil, false},
		{"empty body", "", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := resolveInvocation(bus.InboundMessage{Content: tt.body}, "!", cfg, "")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if inv.word != tt.wantWord {
				t.Errorf("word = %q, want %q", inv.word, tt.wantWord)
			}
			if len(inv.args) > 0 || len(tt.wantArgs) > 0 {
				if !reflect.DeepEqual(inv.args, tt.wantArgs) {
					t.Errorf("args = %v, want %v", inv.args, tt.wantArgs)
				}
			}
		})
	}
}

func TestResolveInvocationThreadPrefixOverride(t *testing.T) {
	cfg := config.PrefixConfig{Global: "!"}

	// The effective prefix passed in wins over the global one.
	inv, ok := resolveInvocation(bus.InboundMessage{Content: "?ping"}, "?", cfg, "")
	if !ok || inv.word != "ping" {
		t.Fatalf("override prefix not honored: %+v ok=%v", inv, ok)
	}
	if _, ok := resolveInvocation(bus.InboundMessage{Content: "!ping"}, "?", cfg, ""); ok {
		t.Error("global prefix should not work where an override is in force")
	}
}

func TestResolveInvocationMention(t *testing.T) {
	cfg := config.PrefixConfig{Global: "!", MentionAsPrefix: true}

	inv, ok := resolveInvocation(bus.InboundMessage{Content: "@bot123 help ping"}, "!", cfg, "bot123")
	if !ok || inv.word != "help" {
		t.Fatalf("mention prefix failed: %+v ok=%v", inv, ok)
	}
	if len(inv.args) != 1 || inv.args[0] != "ping" {
		t.Errorf("args = %v", inv.args)
	}

	// Mention flag set but mention token mid-body.
	inv, ok = resolveInvocation(bus.InboundMessage{Content: "ping @bot123", Mentioned: true}, "!", cfg, "bot123")
	if !ok || inv.word != "ping" {
		t.Fatalf("mid-body mention failed: %+v ok=%v", inv, ok)
	}
}

func TestResolveInvocationBareWord(t *testing.T) {
	withBare := config.PrefixConfig{Global: "!", AllowNoPrefix: true}
	inv, ok := resolveInvocation(bus.InboundMessage{Content: "ping"}, "!", withBare, "")
	if !ok || inv.word != "ping" {
		t.Fatalf("bare word failed: %+v ok=%v", inv, ok)
	}

	withoutBare := config.PrefixConfig{Global: "!"}
	if _, ok := resolveInvocation(bus.InboundMessage{Content: "ping"}, "!", withoutBare, ""); ok {
		t.Error("bare word should be rejected when disabled")
	}
}
