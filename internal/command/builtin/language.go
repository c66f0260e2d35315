package builtin

import (
	"strings"

	"github.com/Irfan430/wp-bot/internal/command"
	"github.com/Irfan430/wp-bot/internal/permissions"
	"github.com/Irfan430/wp-bot/internal/store"
)

type languageCommand struct{}

func (languageCommand) Describe() command.Descriptor {
	return command.Descriptor{
		Name:     "language",
		Aliases:  []string{"lang", "setlang"},
		Role:     permissions.RoleMember,
		Cooldown: 3,
		Category: "settings",
		Guide:    "{p}language <code>",
	}
}

// In a group this sets the thread language (admin role required); in a
// direct chat it sets the sender's own preference.
func (languageCommand) OnStart(ctx *command.Context) error {
	if len(ctx.Args) == 0 {
		usage := ctx.Lang("languageUsage", map[string]string{"p": ctx.Prefix})
		codes := ctx.Languages()
		if len(codes) > 0 {
			usage += "\n" + strings.Join(codes, ", ")
		}
		ctx.Reply(usage)
		return nil
	}

	code := strings.ToLower(ctx.Args[0])
	if !ctx.HasLanguage(code) {
		ctx.Reply(ctx.Lang("languageUnknown", map[string]string{"lang": code}))
		return nil
	}

	if ctx.Thread != nil {
		if !permissions.Allows(permissions.RoleAdmin, ctx.Role) {
			ctx.Reply(ctx.Lang("permissionDenied", nil))
			return nil
		}
		ctx.DB.UpdateThread(ctx.Thread.ID, func(t *store.ThreadRecord) {
			t.Language = code
		})
	} else {
		ctx.DB.UpdateUser(ctx.User.ID, func(u *store.UserRecord) {
			u.Language = code
		})
	}

	// Confirm in the newly chosen language.
	ctx.Language = code
	ctx.Reply(ctx.Lang("languageSet", map[string]string{"lang": code}))
	return nil
}
