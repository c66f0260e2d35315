package bot

import (
	"strings"

	"github.com/Irfan430/wp-bot/internal/bus"
	"github.com/Irfan430/wp-bot/internal/config"
)

// invocation is a parsed command attempt: the command word and everything
// after it, tokenized on whitespace.
type invocation struct {
	word string
	args []string
}

func normalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// resolveInvocation decides whether a message body is a command attempt
// and extracts the word and arguments. Three recognition modes, tried in
// order: explicit prefix, @-mention of the bot account, bare word when
// configured. Bare-word attempts still have to resolve to a registered
// command; the dispatcher checks that, this function only parses.
func resolveInvocation(msg bus.InboundMessage, prefix string, cfg config.PrefixConfig, botID string) (invocation, bool) {
	body := strings.TrimSpace(msg.Content)
	if body == "" {
		return invocation{}, false
	}

	if prefix != "" && strings.HasPrefix(body, prefix) {
		return tokenize(body[len(prefix):])
	}

	if cfg.MentionAsPrefix && botID != "" {
		mention := "@" + botID
		if strings.HasPrefix(body, mention) {
			return tokenize(body[len(mention):])
		}
		if msg.Mentioned {
			// Mention placed mid-body: drop the mention token wherever it is.
			cleaned := strings.ReplaceAll(body, mention, " ")
			return tokenize(cleaned)
		}
	}

	if cfg.AllowNoPrefix {
		return tokenize(body)
	}

	return invocation{}, false
}

func tokenize(rest string) (invocation, bool) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return invocation{}, false
	}
	return invocation{
		word: normalizeWord(fields[0]),
		args: fields[1:],
	}, true
}
