package builtin

import (
	"strconv"
	"strings"
	"time"

	"github.com/Irfan430/wp-bot/internal/command"
	"github.com/Irfan430/wp-bot/internal/permissions"
)

type pingCommand struct{}

func (pingCommand) Describe() command.Descriptor {
	return command.Descriptor{
		Name:     "ping",
		Aliases:  []string{"pong", "status"},
		Role:     permissions.RoleMember,
		Cooldown: 5,
		Category: "system",
		Guide:    "{p}ping",
	}
}

func (pingCommand) OnStart(ctx *command.Context) error {
	stats := ctx.DB.Stats()

	lines := []string{ctx.Lang("ping", nil)}
	if ts := ctx.Message.Metadata["timestamp"]; ts != "" {
		if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
			latency := time.Since(time.UnixMilli(ms)).Milliseconds()
			if latency >= 0 {
				lines = append(lines, ctx.Lang("latency", map[string]string{
					"latency": strconv.FormatInt(latency, 10),
				}))
			}
		}
	}
	lines = append(lines,
		ctx.Lang("uptime", map[string]string{"uptime": formatDuration(ctx.Runtime.Uptime())}),
		ctx.Lang("users", map[string]string{"users": strconv.Itoa(stats.TotalUsers)}),
		ctx.Lang("threads", map[string]string{"threads": strconv.Itoa(stats.TotalThreads)}),
	)

	ctx.Reply(strings.Join(lines, "\n"))
	return nil
}
