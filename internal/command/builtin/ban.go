package builtin

import (
	"strings"
	"time"

	"github.com/Irfan430/wp-bot/internal/command"
	"github.com/Irfan430/wp-bot/internal/permissions"
)

type banCommand struct{}

func (banCommand) Describe() command.Descriptor {
	return command.Descriptor{
		Name:     "ban",
		Role:     permissions.RoleOwner,
		Cooldown: 0,
		Category: "admin",
		Guide:    "{p}ban <user id> [duration] [reason]",
	}
}

func (banCommand) OnStart(ctx *command.Context) error {
	if len(ctx.Args) == 0 {
		ctx.Reply(ctx.Lang("banUsage", map[string]string{"p": ctx.Prefix}))
		return nil
	}

	target := ctx.Args[0]
	rest := ctx.Args[1:]

	// An optional leading duration token like 30m, 12h or 7d.
	var duration time.Duration
	if len(rest) > 0 {
		if d, ok := parseBanDuration(rest[0]); ok {
			duration = d
			rest = rest[1:]
		}
	}

	reason := strings.Join(rest, " ")
	if reason == "" {
		reason = ctx.Lang("noReason", nil)
	}

	ctx.Runtime.BanUser(target, reason, duration)
	ctx.Reply(ctx.Lang("banDone", map[string]string{"user": target, "reason": reason}))
	return nil
}

type unbanCommand struct{}

func (unbanCommand) Describe() command.Descriptor {
	return command.Descriptor{
		Name:     "unban",
		Role:     permissions.RoleOwner,
		Cooldown: 0,
		Category: "admin",
		Guide:    "{p}unban <user id>",
	}
}

func (unbanCommand) OnStart(ctx *command.Context) error {
	if len(ctx.Args) == 0 {
		ctx.Reply(ctx.Lang("unbanUsage", map[string]string{"p": ctx.Prefix}))
		return nil
	}

	target := ctx.Args[0]
	ctx.Runtime.UnbanUser(target)
	ctx.Reply(ctx.Lang("unbanDone", map[string]string{"user": target}))
	return nil
}

// parseBanDuration accepts Nm, Nh and Nd tokens. Anything else is treated
// as part of the reason.
func parseBanDuration(token string) (time.Duration, bool) {
	if len(token) < 2 {
		return 0, false
	}
	unit := token[len(token)-1]
	digits := token[:len(token)-1]
	n := int64(0)
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int64(r-'0')
	}
	if n == 0 {
		return 0, false
	}
	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, true
	case 'h':
		return time.Duration(n) * time.Hour, true
	case 'd':
		return time.Duration(n) * 24 * time.Hour, true
	}
	return 0, false
}
