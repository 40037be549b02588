package nakama

import (
	"context"
	"database/sql"
	"time"

	"hearts/internal/app"
	"hearts/internal/bot"
	"hearts/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs, hooks and the match handler into the Nakama
// runtime. The session registry is constructed here and injected into
// everything that needs it.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	cfg, err := config.Load("data/hearts_config.json")
	if err != nil {
		return err
	}

	registry := app.NewRegistry(nil, app.Stakes{BaseBet: cfg.BaseBet(""), Rake: cfg.RakeRate})

	if err := RegisterRPCs(initializer, registry, cfg); err != nil {
		return err
	}

	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameHearts, NewMatch(registry, cfg)); err != nil {
		return err
	}

	// Backstop for sessions whose match handler never reached its own
	// shutdown path: evict idle registry entries on a slow cadence.
	maxIdle := time.Duration(cfg.IdleSweepSeconds) * time.Second
	go func() {
		ticker := time.NewTicker(maxIdle)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if evicted := registry.Sweep(now, maxIdle); len(evicted) > 0 {
					logger.Info("Registry sweep evicted %d idle sessions.", len(evicted))
				}
			}
		}
	}()

	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("InitModule: Could not load bot identities: %v", err)
	} else if err := bot.ProvisionBots(ctx, nk, logger); err != nil {
		logger.Warn("InitModule: Could not provision bots: %v", err)
	}

	logger.Info("Hearts Go module loaded.")
	return nil
}
