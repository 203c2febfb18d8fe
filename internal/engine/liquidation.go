package engine

import (
	"github.com/shopspring/decimal"

	"hermes/internal/domain/position"
)

// Decision is the outcome of evaluating one position against one price.
type Decision struct {
	Close  bool
	Reason position.CloseReason
	PnL    decimal.Decimal
}

// Evaluate decides whether a position must be closed at the given price.
// Checks run in strict order: take-profit, stop-loss, then margin
// exhaustion; the first match wins. A non-positive price yields no decision
// for this round rather than an error.
//
// threshold is the fraction of initial margin below which the position is
// liquidated (0.05 in production).
func Evaluate(p *position.Position, price, threshold decimal.Decimal) Decision {
	if !price.IsPositive() {
		return Decision{}
	}

	pnl := p.PnL(price)

	if p.TakeProfit.Valid {
		hit := price.GreaterThanOrEqual(p.TakeProfit.Decimal)
		if p.Side == position.SideShort {
			hit = price.LessThanOrEqual(p.TakeProfit.Decimal)
		}
		if hit {
			return Decision{Close: true, Reason: position.ReasonTakeProfit, PnL: pnl}
		}
	}

	if p.StopLoss.Valid {
		hit := price.LessThanOrEqual(p.StopLoss.Decimal)
		if p.Side == position.SideShort {
			hit = price.GreaterThanOrEqual(p.StopLoss.Decimal)
		}
		if hit {
			return Decision{Close: true, Reason: position.ReasonStopLoss, PnL: pnl}
		}
	}

	initialMargin := p.InitialMargin()
	remainingMargin := initialMargin.Add(pnl)
	if remainingMargin.LessThanOrEqual(initialMargin.Mul(threshold)) {
		return Decision{Close: true, Reason: position.ReasonMargin, PnL: pnl}
	}

	return Decision{PnL: pnl}
}

// CloseCredit returns the amount credited back to the account's ledger on
// closure. Margin liquidation is clamped at zero so a trader never loses
// more than the posted margin; take-profit, stop-loss and manual closes
// credit margin plus pnl unclamped.
func CloseCredit(initialMargin, pnl decimal.Decimal, reason position.CloseReason) decimal.Decimal {
	credit := initialMargin.Add(pnl)
	if reason == position.ReasonMargin && credit.IsNegative() {
		return decimal.Zero
	}
	return credit
}
