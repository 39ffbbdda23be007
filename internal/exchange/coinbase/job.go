// Package coinbase exports Coinbase wallet account history: fiat buys and
// sells, peer sends, and exchange-internal transfers.
package coinbase

import (
	"context"
	"encoding/json"
	"fmt"

	"cryptoexport/internal/exchange"
	"cryptoexport/internal/ledger"
	"cryptoexport/internal/page"
	"cryptoexport/logger"
	"cryptoexport/writer"
)

const name = "coinbase"

// cryptoCurrencies limits row extraction to crypto wallets. Fiat wallet
// activity is already represented by the fiat legs of crypto-account rows.
var cryptoCurrencies = map[string]struct{}{
	"BTC": {},
	"ETH": {},
	"LTC": {},
	"BCH": {},
}

// accountResources are the per-account collections drained during a fetch.
var accountResources = []string{"transactions", "buys", "sells", "deposits", "withdrawals"}

type Job struct{}

func New() *Job { return &Job{} }

func (*Job) Name() string { return name }

func (*Job) RequiredKeys() []string { return []string{"key", "secret"} }

func (j *Job) Run(ctx context.Context, env *exchange.Env) error {
	log := env.Log.WithComponent(name)
	section := env.Cfg.Exchange(name)
	client := NewClient(section["key"], section["secret"])

	var accounts []accountData
	loaded := false
	if env.UseLocal {
		ok, err := env.Cache.Load(name, "accounts", &accounts)
		if err != nil {
			return err
		}
		loaded = ok
	}
	if !loaded {
		var err error
		accounts, err = fetchAccounts(ctx, env, client, log)
		if err != nil {
			return err
		}
		if err := env.Cache.Store(name, "accounts", accounts); err != nil {
			return err
		}
	}

	rows, stats := extractRows(accounts, log)
	log.WithFields(logger.Fields{
		"trades":    stats.trades,
		"transfers": stats.transfers,
		"skipped":   stats.skipped,
		"total":     len(rows),
	}).Info("processed records for all accounts")

	path := fmt.Sprintf("%s%s_transactions.csv", env.Cfg.Files.Prefix, name)
	return writer.WriteTransactions(path, ledger.Assemble(rows), log)
}

func fetchAccounts(ctx context.Context, env *exchange.Env, client *Client, log *logger.Entry) ([]accountData, error) {
	log.Info("getting account list via API")
	accountsDriver := &page.Driver{Exchange: name, Resource: "accounts", Limiter: env.Limiter, Log: env.Log}
	rawAccounts, err := accountsDriver.Drain(ctx, client.ListAccounts)
	if err != nil {
		return nil, err
	}

	accounts := make([]accountData, 0, len(rawAccounts))
	for i, raw := range rawAccounts {
		var acct accountData
		if err := json.Unmarshal(raw, &acct.Account); err != nil {
			return nil, fmt.Errorf("decode account %d: %w", i, err)
		}

		log.WithFields(logger.Fields{
			"account":        acct.ID,
			"balance":        acct.Balance.Amount,
			"currency":       acct.Currency,
			"native_balance": acct.NativeBalance.Amount,
		}).Info("fetching account collections")

		for _, resource := range accountResources {
			resource := resource
			driver := &page.Driver{Exchange: name, Resource: resource, Limiter: env.Limiter, Log: env.Log}
			records, err := driver.Drain(ctx, func(ctx context.Context, cursor string) ([]json.RawMessage, string, error) {
				return client.ListResource(ctx, acct.ID, resource, cursor)
			})
			if err != nil {
				return nil, fmt.Errorf("drain %s for account %s: %w", resource, acct.ID, err)
			}
			switch resource {
			case "transactions":
				acct.Transactions = records
			case "buys":
				acct.Buys = records
			case "sells":
				acct.Sells = records
			case "deposits":
				acct.Deposits = records
			case "withdrawals":
				acct.Withdrawals = records
			}
		}

		accounts = append(accounts, acct)
	}
	return accounts, nil
}

type runStats struct {
	trades    int
	transfers int
	skipped   int
}

// extractRows classifies every account collection into ledger rows.
// Classification failures are warnings: the record is dumped to the log and
// excluded, and the run continues.
func extractRows(accounts []accountData, log *logger.Entry) ([]ledger.Row, runStats) {
	var rows []ledger.Row
	var stats runStats

	for _, acct := range accounts {
		if _, ok := cryptoCurrencies[acct.Currency]; !ok {
			continue
		}

		buys := make(map[string]Trade, len(acct.Buys))
		for _, raw := range acct.Buys {
			var t Trade
			if err := json.Unmarshal(raw, &t); err != nil {
				warnRecord(log, acct.ID, raw, err)
				stats.skipped++
				continue
			}
			buys[t.ID] = t
			row, err := classifyBuy(t)
			if err != nil {
				warnRecord(log, acct.ID, raw, err)
				stats.skipped++
				continue
			}
			if row != nil {
				rows = append(rows, *row)
				stats.trades++
			}
		}

		for _, raw := range acct.Sells {
			var t Trade
			if err := json.Unmarshal(raw, &t); err != nil {
				warnRecord(log, acct.ID, raw, err)
				stats.skipped++
				continue
			}
			row, err := classifySell(t)
			if err != nil {
				warnRecord(log, acct.ID, raw, err)
				stats.skipped++
				continue
			}
			if row != nil {
				rows = append(rows, *row)
				stats.trades++
			}
		}

		for _, raw := range acct.Transactions {
			var tx Transaction
			if err := json.Unmarshal(raw, &tx); err != nil {
				warnRecord(log, acct.ID, raw, err)
				stats.skipped++
				continue
			}
			row, err := classifyTransaction(tx, buys)
			if err != nil {
				warnRecord(log, acct.ID, raw, err)
				stats.skipped++
				continue
			}
			if row != nil {
				rows = append(rows, *row)
				stats.transfers++
			}
		}
	}

	return rows, stats
}

func warnRecord(log *logger.Entry, accountID string, raw json.RawMessage, err error) {
	log.WithError(err).WithFields(logger.Fields{
		"account": accountID,
		"record":  string(raw),
	}).Warn("record excluded from export")
}
