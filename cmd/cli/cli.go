package main

import (
	"context"
	"fmt"
	"io"

	"github.com/amirasaad/bankledger/pkg/commands"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/money"
	"github.com/amirasaad/bankledger/pkg/ledger"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

const usage = `Usage: cli <command> [arguments]
Commands:
  open <number> <routing_code> <owner_id> <institution_id> <institution_name> [balance]
  deposit <number> <amount>
  withdraw <number> <amount>
  transfer <from> <to> <to_routing_code> <amount> [purpose]
  balance <number>
  history <number>
  status <number> <ACTIVE|INACTIVE>`

type cli struct {
	engine *ledger.Engine
	uow    repository.UnitOfWork
	out    io.Writer
	ok     *color.Color
	dim    *color.Color
}

func newCLI(engine *ledger.Engine, uow repository.UnitOfWork, out io.Writer) *cli {
	return &cli{
		engine: engine,
		uow:    uow,
		out:    out,
		ok:     color.New(color.FgGreen, color.Bold),
		dim:    color.New(color.Faint),
	}
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}
	cmd, args := args[0], args[1:]
	need := map[string]int{
		"open": 5, "deposit": 2, "withdraw": 2, "transfer": 4,
		"balance": 1, "history": 1, "status": 2,
	}
	n, known := need[cmd]
	if !known {
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
	if len(args) < n {
		return fmt.Errorf("%s: expected at least %d arguments\n%s", cmd, n, usage)
	}

	switch cmd {
	case "open":
		return c.open(ctx, args)
	case "deposit", "withdraw":
		amount, err := money.New(args[1])
		if err != nil {
			return err
		}
		var balance money.Money
		if cmd == "deposit" {
			balance, err = c.engine.Deposit(ctx, commands.Deposit{AccountNumber: args[0], Amount: amount})
		} else {
			balance, err = c.engine.Withdraw(ctx, commands.Withdraw{AccountNumber: args[0], Amount: amount})
		}
		if err != nil {
			return err
		}
		c.ok.Fprintf(c.out, "✅ %s %s on %s. New balance: %s\n", cmd, amount, args[0], balance) //nolint:errcheck
	case "transfer":
		amount, err := money.New(args[3])
		if err != nil {
			return err
		}
		cmdT := commands.Transfer{
			SenderAccountNumber:   args[0],
			ReceiverAccountNumber: args[1],
			ReceiverRoutingCode:   args[2],
			Amount:                amount,
		}
		if len(args) > 4 {
			cmdT.Purpose = &args[4]
		}
		res, err := c.engine.Transfer(ctx, cmdT)
		if err != nil {
			return err
		}
		c.ok.Fprintf(c.out, "✅ transferred %s from %s (%s) to %s (%s)\n", //nolint:errcheck
			amount, args[0], res.SenderBalance, args[1], res.ReceiverBalance)
	case "balance":
		balance, err := c.engine.Balance(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Account %s balance: %s\n", args[0], balance) //nolint:errcheck
	case "history":
		txs, err := c.engine.History(ctx, args[0])
		if err != nil {
			return err
		}
		for _, tx := range txs {
			counterparty := "-"
			if tx.CounterpartyAccountNumber != nil {
				counterparty = *tx.CounterpartyAccountNumber
			}
			fmt.Fprintf(c.out, "%s  %-12s %10s  balance %10s  %s\n", //nolint:errcheck
				c.dim.Sprint(tx.CreatedAt.Format("2006-01-02 15:04:05")), tx.Type, tx.Amount, tx.BalanceAfter, counterparty)
		}
	case "status":
		status, err := account.ParseStatus(args[1])
		if err != nil {
			return err
		}
		acct, err := c.engine.SetStatus(ctx, commands.SetStatus{AccountNumber: args[0], Status: status})
		if err != nil {
			return err
		}
		c.ok.Fprintf(c.out, "✅ account %s is now %s\n", acct.Number, acct.Status) //nolint:errcheck
	}
	return nil
}

func (c *cli) open(ctx context.Context, args []string) error {
	owner, err := uuid.Parse(args[2])
	if err != nil {
		return fmt.Errorf("owner_id: %w", err)
	}
	institution, err := uuid.Parse(args[3])
	if err != nil {
		return fmt.Errorf("institution_id: %w", err)
	}
	balance := money.Zero()
	if len(args) > 5 {
		if balance, err = money.New(args[5]); err != nil {
			return err
		}
	}
	acct, err := account.New().
		WithNumber(args[0]).
		WithRoutingCode(args[1]).
		WithOwnerID(owner).
		WithInstitution(institution, args[4]).
		WithBalance(balance).
		Build()
	if err != nil {
		return err
	}
	err = c.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, acct)
	})
	if err != nil {
		return err
	}
	c.ok.Fprintf(c.out, "✅ account %s opened with balance %s\n", acct.Number, acct.Balance) //nolint:errcheck
	return nil
}
