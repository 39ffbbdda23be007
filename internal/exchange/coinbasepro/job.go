// Package coinbasepro exports Coinbase Pro fills and account-history
// transfers. Trades come from the fills endpoint per product; the account
// ledger contributes deposits and withdrawals only, since its match and fee
// entries duplicate the fills.
package coinbasepro

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

const name = "coinbase-pro"

type Job struct{}

func New() *Job { return &Job{} }

func (*Job) Name() string { return name }

func (*Job) RequiredKeys() []string { return []string{"passphrase", "key", "secret"} }

func (j *Job) Run(ctx context.Context, env *exchange.Env) error {
	log := env.Log.WithComponent(name)
	section := env.Cfg.Exchange(name)
	client := NewClient(section["key"], section["secret"], section["passphrase"])

	accounts, err := loadOrFetchAccounts(ctx, env, client, log)
	if err != nil {
		return err
	}
	fills, err := loadOrFetchFills(ctx, env, client, log)
	if err != nil {
		return err
	}

	rows, stats := extractRows(accounts, fills, log)
	log.WithFields(logger.Fields{
		"trades":    stats.trades,
		"transfers": stats.transfers,
		"skipped":   stats.skipped,
		"total":     len(rows),
	}).Info("processed fills and account history")

	path := fmt.Sprintf("%s%s_transactions.csv", env.Cfg.Files.Prefix, name)
	return writer.WriteTransactions(path, ledger.Assemble(rows), log)
}

func loadOrFetchAccounts(ctx context.Context, env *exchange.Env, client *Client, log *logger.Entry) ([]accountData, error) {
	var accounts []accountData
	if env.UseLocal {
		ok, err := env.Cache.Load(name, "accounts", &accounts)
		if err != nil {
			return nil, err
		}
		if ok {
			return accounts, nil
		}
	}

	log.Info("getting account list via API")
	rawAccounts, err := client.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	accounts = make([]accountData, 0, len(rawAccounts))
	for i, raw := range rawAccounts {
		var acct accountData
		if err := json.Unmarshal(raw, &acct.Account); err != nil {
			return nil, fmt.Errorf("decode account %d: %w", i, err)
		}

		log.WithFields(logger.Fields{
			"account":  acct.ID,
			"currency": acct.Currency,
			"balance":  acct.Balance,
		}).Info("fetching account history")

		driver := &page.Driver{
			Exchange: name,
			Resource: "ledger",
			Extract:  page.Opaque,
			Limiter:  env.Limiter,
			Log:      env.Log,
		}
		history, err := driver.Drain(ctx, func(ctx context.Context, cursor string) ([]json.RawMessage, string, error) {
			return client.ListLedger(ctx, acct.ID, cursor)
		})
		if err != nil {
			return nil, fmt.Errorf("drain ledger for account %s: %w", acct.ID, err)
		}
		acct.History = history
		accounts = append(accounts, acct)
	}

	if err := env.Cache.Store(name, "accounts", accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func loadOrFetchFills(ctx context.Context, env *exchange.Env, client *Client, log *logger.Entry) ([]json.RawMessage, error) {
	var fills []json.RawMessage
	if env.UseLocal {
		ok, err := env.Cache.Load(name, "fills", &fills)
		if err != nil {
			return nil, err
		}
		if ok {
			return fills, nil
		}
	}

	products, err := client.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{"products": len(products)}).Info("fetching fills per product")

	for _, product := range products {
		product := product
		driver := &page.Driver{
			Exchange: name,
			Resource: "fills " + product.ID,
			Extract:  page.Opaque,
			Limiter:  env.Limiter,
			Log:      env.Log,
		}
		records, err := driver.Drain(ctx, func(ctx context.Context, cursor string) ([]json.RawMessage, string, error) {
			return client.ListFills(ctx, product.ID, cursor)
		})
		if err != nil {
			return nil, fmt.Errorf("drain fills for %s: %w", product.ID, err)
		}
		fills = append(fills, records...)
	}

	if err := env.Cache.Store(name, "fills", fills); err != nil {
		return nil, err
	}
	return fills, nil
}

type runStats struct {
	trades    int
	transfers int
	skipped   int
}

// extractRows classifies fills and account history into ledger rows.
// Classification failures are warnings: the record is dumped to the log and
// excluded, and the run continues.
func extractRows(accounts []accountData, fills []json.RawMessage, log *logger.Entry) ([]ledger.Row, runStats) {
	var rows []ledger.Row
	var stats runStats

	for _, raw := range fills {
		var f Fill
		if err := json.Unmarshal(raw, &f); err != nil {
			warnRecord(log, "", raw, err)
			stats.skipped++
			continue
		}
		row, err := classifyFill(f)
		if err != nil {
			warnRecord(log, "", raw, err)
			stats.skipped++
			continue
		}
		rows = append(rows, *row)
		stats.trades++
	}

	for _, acct := range accounts {
		for _, raw := range acct.History {
			var e LedgerEntry
			if err := json.Unmarshal(raw, &e); err != nil {
				warnRecord(log, acct.ID, raw, err)
				stats.skipped++
				continue
			}
			row, err := classifyLedgerEntry(acct.Currency, e)
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
