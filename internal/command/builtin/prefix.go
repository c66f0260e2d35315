package builtin

import (
	"github.com/Irfan430/wp-bot/internal/command"
	"github.com/Irfan430/wp-bot/internal/permissions"
	"github.com/Irfan430/wp-bot/internal/store"
)

type prefixCommand struct{}

func (prefixCommand) Describe() command.Descriptor {
	return command.Descriptor{
		Name:     "prefix",
		Role:     permissions.RoleMember,
		Cooldown: 3,
		Category: "settings",
		Guide:    "{p}prefix [new prefix]",
	}
}

// Anyone may view the prefix; changing it needs a group and admin role.
func (prefixCommand) OnStart(ctx *command.Context) error {
	if len(ctx.Args) == 0 {
		ctx.Reply(ctx.Lang("prefixCurrent", map[string]string{"prefix": ctx.Prefix}))
		return nil
	}

	if ctx.Thread == nil {
		ctx.Reply(ctx.Lang("prefixGroupOnly", nil))
		return nil
	}
	if !permissions.Allows(permissions.RoleAdmin, ctx.Role) {
		ctx.Reply(ctx.Lang("permissionDenied", nil))
		return nil
	}

	newPrefix := ctx.Args[0]
	threadID := ctx.Thread.ID
	ctx.DB.UpdateThread(threadID, func(t *store.ThreadRecord) {
		t.Prefix = newPrefix
	})
	ctx.Runtime.SetThreadPrefix(threadID, newPrefix)
	ctx.Reply(ctx.Lang("prefixSet", map[string]string{"prefix": newPrefix}))
	return nil
}
