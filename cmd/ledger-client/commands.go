package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/domain"
)

var errUsage = errors.New("invalid arguments")

// simpleCommand adapts a function to Command.
type simpleCommand struct {
	name, usage, description string
	minArgs                  int
	run                      func(ctx context.Context, app *App, args []string) error
}

func (c simpleCommand) Name() string        { return c.name }
func (c simpleCommand) Usage() string       { return c.usage }
func (c simpleCommand) Description() string { return c.description }

func (c simpleCommand) Run(ctx context.Context, app *App, args []string) error {
	if len(args) < c.minArgs {
		return fmt.Errorf("%w: usage: %s", errUsage, c.usage)
	}
	return c.run(ctx, app, args)
}

// operation wraps a ledger call so success and failure are reported the same way.
func operation(name, usage, description string, minArgs int, call func(ctx context.Context, app *App, args []string) (*backend.Result, error)) Command {
	return simpleCommand{
		name: name, usage: usage, description: description, minArgs: minArgs,
		run: func(ctx context.Context, app *App, args []string) error {
			res, err := call(ctx, app, args)
			if errors.Is(err, errUsage) {
				return err
			}
			if err != nil {
				printFailure(name, err)
				return err
			}
			printResult(name, res)
			return nil
		},
	}
}

func registerCommands(r *Registry) {
	r.Register(simpleCommand{name: "status", usage: "status", description: "Show balances, tracks and levels", run: runStatus})

	r.Register(operation("claim-daily", "claim-daily [index]", "Claim the daily reward", 0,
		func(ctx context.Context, app *App, args []string) (*backend.Result, error) {
			index, err := trackIndex(app, domain.TrackDaily, args)
			if err != nil {
				return nil, err
			}
			return app.Session.ClaimDaily(ctx, index)
		}))
	r.Register(operation("claim-new-player", "claim-new-player [index]", "Claim the new-player reward", 0,
		func(ctx context.Context, app *App, args []string) (*backend.Result, error) {
			index, err := trackIndex(app, domain.TrackNewPlayer, args)
			if err != nil {
				return nil, err
			}
			return app.Session.ClaimNewPlayer(ctx, index)
		}))
	r.Register(operation("claim-bp", "claim-bp <index>", "Claim a battle pass reward", 1,
		func(ctx context.Context, app *App, args []string) (*backend.Result, error) {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, fmt.Errorf("%w: index: %v", errUsage, err)
			}
			return app.Session.ClaimBattlePass(ctx, index)
		}))
	r.Register(operation("unlock-premium", "unlock-premium", "Buy the premium battle pass", 0,
		func(ctx context.Context, app *App, _ []string) (*backend.Result, error) {
			return app.Session.UnlockBattlePassPremium(ctx)
		}))
	r.Register(operation("exp", "exp <amount>", "Add account exp", 1,
		func(ctx context.Context, app *App, args []string) (*backend.Result, error) {
			amount, err := parseAmount(args[0])
			if err != nil {
				return nil, err
			}
			return app.Session.AddAccountExp(ctx, amount)
		}))
	r.Register(operation("char-exp", "char-exp <character> <amount>", "Add character exp", 2,
		func(ctx context.Context, app *App, args []string) (*backend.Result, error) {
			amount, err := parseAmount(args[1])
			if err != nil {
				return nil, err
			}
			return app.Session.AddCharacterExp(ctx, args[0], amount)
		}))
	r.Register(operation("mastery-exp", "mastery-exp <character> <amount>", "Add character mastery exp", 2,
		func(ctx context.Context, app *App, args []string) (*backend.Result, error) {
			amount, err := parseAmount(args[1])
			if err != nil {
				return nil, err
			}
			return app.Session.AddCharacterMasteryExp(ctx, args[0], amount)
		}))
	r.Register(operation("finish-session", "finish-session <summary.json|->", "Apply a game session summary", 1,
		func(ctx context.Context, app *App, args []string) (*backend.Result, error) {
			summary, err := readSummary(args[0])
			if err != nil {
				return nil, err
			}
			return app.Session.CompleteGameSession(ctx, summary)
		}))
	r.Register(operation("redeem", "redeem <code>", "Redeem a coupon", 1,
		func(ctx context.Context, app *App, args []string) (*backend.Result, error) {
			return app.Session.RedeemCoupon(ctx, args[0])
		}))
	r.Register(operation("buy", "buy <offer>", "Purchase an offer", 1,
		func(ctx context.Context, app *App, args []string) (*backend.Result, error) {
			return app.Session.PurchaseOffer(ctx, args[0])
		}))
	r.Register(operation("upgrade", "upgrade <item> <stat>", "Upgrade one stat of an item", 2,
		func(ctx context.Context, app *App, args []string) (*backend.Result, error) {
			stat, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, fmt.Errorf("%w: stat: %v", errUsage, err)
			}
			return app.Session.UpgradeItem(ctx, args[0], stat)
		}))
}

// trackIndex returns the explicit index argument or the next claimable slot.
func trackIndex(app *App, kind domain.TrackKind, args []string) (int, error) {
	if len(args) > 0 {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, fmt.Errorf("%w: index: %v", errUsage, err)
		}
		return index, nil
	}
	return app.Session.TrackState(kind).Index, nil
}

func parseAmount(s string) (int64, error) {
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount: %v", errUsage, err)
	}
	return amount, nil
}

func readSummary(path string) (domain.SessionSummary, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return domain.SessionSummary{}, fmt.Errorf("%w: %v", errUsage, err)
		}
		defer f.Close()
		r = f
	}
	var summary domain.SessionSummary
	if err := json.NewDecoder(r).Decode(&summary); err != nil {
		return domain.SessionSummary{}, fmt.Errorf("%w: summary: %v", errUsage, err)
	}
	return summary, nil
}

func runStatus(_ context.Context, app *App, _ []string) error {
	cache := app.Session.Cache()

	PrintHeader("Account " + cache.AccountID())
	if app.Load.Offline {
		PrintWarning("offline: showing last saved state")
	}
	printBalances(cache.Balances())

	PrintHeader("Tracks")
	for _, kind := range []domain.TrackKind{domain.TrackDaily, domain.TrackNewPlayer} {
		state := app.Session.TrackState(kind)
		fmt.Printf("  %-12s %s (slot %d)\n", kind, state.Status, state.Index)
	}

	PrintHeader("Progress")
	lvl := cache.Level(domain.AxisAccount, "")
	fmt.Printf("  account level %d (%d exp)\n", lvl.Level, lvl.Exp)
	bp := cache.BattlePass()
	fmt.Printf("  battle pass level %d (%d exp), premium=%v\n", bp.Progress.Level, bp.Progress.Exp, bp.Premium)
	return nil
}
