package builtin

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Irfan430/wp-bot/internal/command"
	"github.com/Irfan430/wp-bot/internal/permissions"
)

type helpCommand struct{}

func (helpCommand) Describe() command.Descriptor {
	return command.Descriptor{
		Name:     "help",
		Aliases:  []string{"menu", "commands"},
		Role:     permissions.RoleMember,
		Cooldown: 5,
		Category: "system",
		Guide:    "{p}help [command]",
	}
}

func (helpCommand) OnStart(ctx *command.Context) error {
	if len(ctx.Args) > 0 {
		return helpFor(ctx, ctx.Args[0])
	}

	byCategory := make(map[string][]string)
	for _, h := range ctx.Registry.All() {
		desc := h.Describe()
		category := desc.Category
		if category == "" {
			category = "general"
		}
		byCategory[category] = append(byCategory[category], desc.Name)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString(ctx.Lang("helpTitle", nil))
	b.WriteString("\n")
	for _, category := range categories {
		sort.Strings(byCategory[category])
		fmt.Fprintf(&b, "\n▸ %s\n", strings.ToUpper(category))
		for _, name := range byCategory[category] {
			fmt.Fprintf(&b, "  • %s\n", name)
		}
	}
	b.WriteString("\n")
	b.WriteString(ctx.Lang("helpFooter", map[string]string{
		"p":     ctx.Prefix,
		"total": strconv.Itoa(ctx.Registry.Len()),
	}))

	ctx.Reply(b.String())
	return nil
}

func helpFor(ctx *command.Context, word string) error {
	h, ok := ctx.Registry.Resolve(word)
	if !ok {
		ctx.Reply(ctx.Lang("helpNotFound", nil))
		return nil
	}
	desc := h.Describe()

	aliases := "-"
	if len(desc.Aliases) > 0 {
		aliases = strings.Join(desc.Aliases, ", ")
	}
	guide := strings.ReplaceAll(desc.Guide, "{p}", ctx.Prefix)
	if guide == "" {
		guide = ctx.Prefix + desc.Name
	}

	lines := []string{
		ctx.Lang("commandInfo", nil),
		fmt.Sprintf("%s: %s", ctx.Lang("helpName", nil), desc.Name),
		fmt.Sprintf("%s: %s", ctx.Lang("helpAliases", nil), aliases),
		fmt.Sprintf("%s: %s", ctx.Lang("helpRole", nil), desc.Role.String()),
		fmt.Sprintf("%s: %ds", ctx.Lang("helpCooldown", nil), desc.Cooldown),
		fmt.Sprintf("%s: %s", ctx.Lang("helpCategory", nil), desc.Category),
		fmt.Sprintf("%s: %s", ctx.Lang("helpUsage", nil), guide),
	}
	ctx.Reply(strings.Join(lines, "\n"))
	return nil
}
