// Package novadax snapshots NovaDAX account balances. The exchange is
// supported for balance reporting only: its balances are cached and logged,
// and no ledger rows are produced.
package novadax

import (
	"context"

	"cryptoexport/internal/exchange"
	"cryptoexport/logger"
)

const name = "novadax"

type Job struct{}

func New() *Job { return &Job{} }

func (*Job) Name() string { return name }

func (*Job) RequiredKeys() []string { return []string{"access_key", "secret_key"} }

func (j *Job) Run(ctx context.Context, env *exchange.Env) error {
	log := env.Log.WithComponent(name)
	section := env.Cfg.Exchange(name)

	var balances []Balance
	loaded := false
	if env.UseLocal {
		ok, err := env.Cache.Load(name, "accounts", &balances)
		if err != nil {
			return err
		}
		loaded = ok
	}
	if !loaded {
		log.Info("getting account balances via API")
		client := NewClient(section["access_key"], section["secret_key"])
		if env.Limiter != nil {
			if err := env.Limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var err error
		balances, err = client.GetBalances(ctx)
		if err != nil {
			return err
		}
		if err := env.Cache.Store(name, "accounts", balances); err != nil {
			return err
		}
	}

	for _, b := range balances {
		log.WithFields(logger.Fields{
			"currency":  b.Currency,
			"balance":   b.Balance,
			"available": b.Available,
			"hold":      b.Hold,
		}).Info("account balance")
	}
	log.WithFields(logger.Fields{"balances": len(balances)}).Info("balance snapshot complete")
	return nil
}
