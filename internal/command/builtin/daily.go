package builtin

import (
	"strconv"
	"time"

	"github.com/Irfan430/wp-bot/internal/command"
	"github.com/Irfan430/wp-bot/internal/permissions"
	"github.com/Irfan430/wp-bot/internal/store"
)

const (
	dailyReward   = 100
	dailyExp      = 50
	dailyInterval = 24 * time.Hour
	expPerLevel   = 1000
)

type dailyCommand struct{}

func (dailyCommand) Describe() command.Descriptor {
	return command.Descriptor{
		Name:     "daily",
		Aliases:  []string{"claim"},
		Role:     permissions.RoleMember,
		Cooldown: 5,
		Category: "economy",
		Guide:    "{p}daily",
	}
}

func (dailyCommand) OnStart(ctx *command.Context) error {
	now := time.Now().UTC()

	if last := ctx.User.Data.Daily; last != nil {
		if elapsed := now.Sub(*last); elapsed < dailyInterval {
			ctx.Reply(ctx.Lang("dailyAlready", map[string]string{
				"time": formatDuration(dailyInterval - elapsed),
			}))
			return nil
		}
	}

	var balance int64
	ctx.DB.UpdateUser(ctx.User.ID, func(u *store.UserRecord) {
		u.Data.Daily = &now
		u.Data.Money += dailyReward
		u.Data.Exp += dailyExp
		u.Data.Level = 1 + int(u.Data.Exp/expPerLevel)
		balance = u.Data.Money
	})

	ctx.Reply(ctx.Lang("dailyClaimed", map[string]string{
		"amount":  strconv.Itoa(dailyReward),
		"balance": strconv.FormatInt(balance, 10),
	}))
	return nil
}

type balanceCommand struct{}

func (balanceCommand) Describe() command.Descriptor {
	return command.Descriptor{
		Name:     "balance",
		Aliases:  []string{"bal", "money"},
		Role:     permissions.RoleMember,
		Cooldown: 3,
		Category: "economy",
		Guide:    "{p}balance",
	}
}

func (balanceCommand) OnStart(ctx *command.Context) error {
	data := ctx.User.Data
	ctx.Reply(ctx.Lang("balanceInfo", map[string]string{
		"balance": strconv.FormatInt(data.Money, 10),
		"exp":     strconv.FormatInt(data.Exp, 10),
		"level":   strconv.Itoa(data.Level),
	}))
	return nil
}
