// Package account exposes the ledger operations over HTTP.
package account

import (
	"github.com/amirasaad/bankledger/pkg/commands"
	"github.com/amirasaad/bankledger/pkg/config"
	accountdomain "github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/ledger"
	"github.com/amirasaad/bankledger/pkg/middleware"
	accountsvc "github.com/amirasaad/bankledger/pkg/service/account"
	"github.com/amirasaad/bankledger/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// HeaderIdempotencyKey carries the caller's idempotency key on money movements.
const HeaderIdempotencyKey = "Idempotency-Key"

// Routes registers the account endpoints. All of them require a bearer token.
//
//   - POST  /accounts/:number/deposit
//   - POST  /accounts/:number/withdraw
//   - POST  /accounts/:number/transfer
//   - GET   /accounts/:number/balance
//   - GET   /accounts/:number/transactions
//   - PATCH /accounts/:number/status
//   - GET   /customers/me/accounts
func Routes(app *fiber.App, svc *accountsvc.Service, cfg *config.App) {
	var jwtCfg *config.Jwt
	if cfg != nil && cfg.Auth != nil {
		jwtCfg = cfg.Auth.Jwt
	}
	protected := middleware.JwtProtected(jwtCfg)

	accounts := app.Group("/accounts", protected)
	accounts.Post("/:number/deposit", Deposit(svc))
	accounts.Post("/:number/withdraw", Withdraw(svc))
	accounts.Post("/:number/transfer", Transfer(svc))
	accounts.Get("/:number/balance", Balance(svc))
	accounts.Get("/:number/transactions", Transactions(svc))
	accounts.Patch("/:number/status", SetStatus(svc))

	app.Get("/customers/me/accounts", protected, MyAccounts(svc))
}

// Deposit credits the account named in the path.
func Deposit(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := middleware.CurrentPrincipal(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[AmountRequest](c)
		if input == nil {
			return err
		}
		amount, err := parseAmount(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		balance, err := svc.Deposit(c.UserContext(), p, commands.Deposit{
			AccountNumber:  c.Params("number"),
			Amount:         amount,
			IdempotencyKey: c.Get(HeaderIdempotencyKey),
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to deposit", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Deposit successful", ledger.BalanceResult{Balance: balance})
	}
}

// Withdraw debits the account named in the path.
func Withdraw(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := middleware.CurrentPrincipal(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[AmountRequest](c)
		if input == nil {
			return err
		}
		amount, err := parseAmount(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		balance, err := svc.Withdraw(c.UserContext(), p, commands.Withdraw{
			AccountNumber:  c.Params("number"),
			Amount:         amount,
			IdempotencyKey: c.Get(HeaderIdempotencyKey),
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to withdraw", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Withdrawal successful", ledger.BalanceResult{Balance: balance})
	}
}

// Transfer moves money from the path account to the receiver in the body.
func Transfer(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := middleware.CurrentPrincipal(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[TransferRequest](c)
		if input == nil {
			return err
		}
		amount, err := parseAmount(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		res, err := svc.Transfer(c.UserContext(), p, commands.Transfer{
			SenderAccountNumber:   c.Params("number"),
			ReceiverAccountNumber: input.ReceiverAccountNumber,
			ReceiverRoutingCode:   input.ReceiverRoutingCode,
			Amount:                amount,
			Purpose:               input.Purpose,
			IdempotencyKey:        c.Get(HeaderIdempotencyKey),
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to transfer", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transfer successful", res)
	}
}

// Balance returns the current balance.
func Balance(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := middleware.CurrentPrincipal(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		balance, err := svc.Balance(c.UserContext(), p, c.Params("number"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to fetch balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance fetched", ledger.BalanceResult{Balance: balance})
	}
}

// Transactions returns the account history, newest first.
func Transactions(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := middleware.CurrentPrincipal(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		txs, err := svc.History(c.UserContext(), p, c.Params("number"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list transactions", err)
		}
		out := make([]TransactionDTO, 0, len(txs))
		for _, tx := range txs {
			out = append(out, toTransactionDTO(tx))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", out)
	}
}

// SetStatus locks or unlocks an account. Admins and managers of the owning bank only.
func SetStatus(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := middleware.CurrentPrincipal(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[StatusRequest](c)
		if input == nil {
			return err
		}
		status, err := accountdomain.ParseStatus(input.Status)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid status", err)
		}
		acct, err := svc.SetStatus(c.UserContext(), p, c.Params("number"), status)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to change status", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Status updated", toAccountDTO(acct))
	}
}

// MyAccounts lists the calling customer's accounts.
func MyAccounts(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := middleware.CurrentPrincipal(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		accts, err := svc.MyAccounts(c.UserContext(), p)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list accounts", err)
		}
		out := make([]AccountDTO, 0, len(accts))
		for _, a := range accts {
			out = append(out, toAccountDTO(a))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Accounts fetched", out)
	}
}
