// Package binance exports Binance spot account trades and capital
// movements through the official REST SDK. Trade history requires the
// symbols to query, so the configured trading pairs drive the fetch.
package binance

import (
	"context"
	"fmt"
	"strings"

	binance "github.com/adshao/go-binance/v2"

	"cryptoexport/internal/exchange"
	"cryptoexport/internal/ledger"
	"cryptoexport/logger"
	"cryptoexport/writer"
)

const name = "binance"

// snapshotData is the raw per-run snapshot: SDK responses as fetched,
// trades keyed by the configured BASE-QUOTE pair.
type snapshotData struct {
	Balances    []binance.Balance             `json:"balances"`
	Trades      map[string][]*binance.TradeV3 `json:"trades"`
	Deposits    []*binance.Deposit            `json:"deposits"`
	Withdrawals []*binance.Withdraw           `json:"withdrawals"`
}

type Job struct{}

func New() *Job { return &Job{} }

func (*Job) Name() string { return name }

func (*Job) RequiredKeys() []string { return []string{"key", "secret", "symbols"} }

func (j *Job) Run(ctx context.Context, env *exchange.Env) error {
	log := env.Log.WithComponent(name)
	section := env.Cfg.Exchange(name)

	pairs := splitSymbols(section["symbols"])
	if len(pairs) == 0 {
		return fmt.Errorf("binance: no trading pairs configured in symbols")
	}

	var data snapshotData
	loaded := false
	if env.UseLocal {
		ok, err := env.Cache.Load(name, "account", &data)
		if err != nil {
			return err
		}
		loaded = ok
	}
	if !loaded {
		var err error
		data, err = fetchAccount(ctx, env, pairs, log)
		if err != nil {
			return err
		}
		if err := env.Cache.Store(name, "account", data); err != nil {
			return err
		}
	}

	for _, b := range data.Balances {
		if b.Free == "0" && b.Locked == "0" {
			continue
		}
		log.WithFields(logger.Fields{
			"asset":  b.Asset,
			"free":   b.Free,
			"locked": b.Locked,
		}).Info("account balance")
	}

	rows, stats := extractRows(data, log)
	log.WithFields(logger.Fields{
		"trades":    stats.trades,
		"transfers": stats.transfers,
		"skipped":   stats.skipped,
		"total":     len(rows),
	}).Info("processed trades and capital movements")

	path := fmt.Sprintf("%s%s_transactions.csv", env.Cfg.Files.Prefix, name)
	return writer.WriteTransactions(path, ledger.Assemble(rows), log)
}

func fetchAccount(ctx context.Context, env *exchange.Env, pairs []string, log *logger.Entry) (snapshotData, error) {
	section := env.Cfg.Exchange(name)
	client := binance.NewClient(section["key"], section["secret"])
	data := snapshotData{Trades: make(map[string][]*binance.TradeV3, len(pairs))}

	wait := func() error {
		if env.Limiter != nil {
			return env.Limiter.Wait(ctx)
		}
		return nil
	}

	if err := wait(); err != nil {
		return data, err
	}
	log.Info("getting account balances via API")
	account, err := client.NewGetAccountService().Do(ctx)
	if err != nil {
		return data, fmt.Errorf("get account: %w", err)
	}
	data.Balances = account.Balances

	for _, pair := range pairs {
		symbol := strings.ReplaceAll(pair, "-", "")
		if err := wait(); err != nil {
			return data, err
		}
		log.WithFields(logger.Fields{"symbol": symbol}).Info("fetching trade history")
		trades, err := client.NewListTradesService().Symbol(symbol).Do(ctx)
		if err != nil {
			return data, fmt.Errorf("list trades for %s: %w", symbol, err)
		}
		data.Trades[pair] = trades
	}

	if err := wait(); err != nil {
		return data, err
	}
	deposits, err := client.NewListDepositsService().Do(ctx)
	if err != nil {
		return data, fmt.Errorf("list deposits: %w", err)
	}
	data.Deposits = deposits

	if err := wait(); err != nil {
		return data, err
	}
	withdrawals, err := client.NewListWithdrawsService().Do(ctx)
	if err != nil {
		return data, fmt.Errorf("list withdrawals: %w", err)
	}
	data.Withdrawals = withdrawals

	return data, nil
}

type runStats struct {
	trades    int
	transfers int
	skipped   int
}

func extractRows(data snapshotData, log *logger.Entry) ([]ledger.Row, runStats) {
	var rows []ledger.Row
	var stats runStats

	for pair, trades := range data.Trades {
		for _, t := range trades {
			row, err := classifyTrade(pair, t)
			if err != nil {
				warnRecord(log, pair, err)
				stats.skipped++
				continue
			}
			rows = append(rows, *row)
			stats.trades++
		}
	}

	for _, d := range data.Deposits {
		row, err := classifyDeposit(d)
		if err != nil {
			warnRecord(log, d.Coin, err)
			stats.skipped++
			continue
		}
		if row != nil {
			rows = append(rows, *row)
			stats.transfers++
		}
	}

	for _, w := range data.Withdrawals {
		row, err := classifyWithdrawal(w)
		if err != nil {
			warnRecord(log, w.Coin, err)
			stats.skipped++
			continue
		}
		if row != nil {
			rows = append(rows, *row)
			stats.transfers++
		}
	}

	return rows, stats
}

func warnRecord(log *logger.Entry, context string, err error) {
	log.WithError(err).WithFields(logger.Fields{
		"context": context,
	}).Warn("record excluded from export")
}

func splitSymbols(raw string) []string {
	var pairs []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}
