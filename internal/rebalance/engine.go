// Package rebalance turns priced holdings, target weights and a cash budget
// into buy and sell recommendations.
package rebalance

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Line is the valuation and recommendation for one holding.
type Line struct {
	Ticker              string
	Quantity            decimal.Decimal
	Price               decimal.Decimal
	TargetWeightPercent decimal.Decimal
	MarketValue         decimal.Decimal
	IdealValue          decimal.Decimal
	Shortfall           decimal.Decimal // ideal - market; positive = under-weight
	RecommendedCash     decimal.Decimal
	RecommendedQuantity decimal.Decimal
	Eligible            bool // price > 0
	ExceedsHolding      bool // sell quantity is more than currently held
}

// Plan is the derived rebalancing result. It is never persisted.
type Plan struct {
	Budget           decimal.Decimal
	TotalMarketValue decimal.Decimal
	SimulatedTotal   decimal.Decimal
	TotalNeeded      decimal.Decimal // sum of buy shortfalls
	Ratio            decimal.Decimal // fraction of each buy shortfall funded
	Allocated        decimal.Decimal // sum of buy cash
	Rationed         bool

	Lines []Line // every holding in input order, priced or not
	Buys  []Line
	Sells []Line
}

// Unspent returns the part of the budget the buy plan does not use.
func (p Plan) Unspent() decimal.Decimal {
	return p.Budget.Sub(p.Allocated)
}

// Compute builds the buy and sell plans. Unpriced holdings are valued at zero
// and never traded. Weights are used as given, without normalization.
func Compute(holdings []model.PricedHolding, budget decimal.Decimal) Plan {
	if budget.IsNegative() {
		budget = decimal.Zero
	}

	plan := Plan{Budget: budget, Ratio: decimal.Zero}

	for _, h := range holdings {
		plan.TotalMarketValue = plan.TotalMarketValue.Add(h.MarketValue())
	}
	plan.SimulatedTotal = plan.TotalMarketValue.Add(budget)

	plan.Lines = make([]Line, 0, len(holdings))
	for _, h := range holdings {
		ideal := plan.SimulatedTotal.Mul(h.TargetWeightPercent).Div(hundred)
		mv := h.MarketValue()
		plan.Lines = append(plan.Lines, Line{
			Ticker:              h.Ticker,
			Quantity:            h.EffectiveQuantity(),
			Price:               h.Price,
			TargetWeightPercent: h.TargetWeightPercent,
			MarketValue:         mv,
			IdealValue:          ideal,
			Shortfall:           ideal.Sub(mv),
			Eligible:            h.Priced(),
		})
	}

	var buys, sells []int
	for i, l := range plan.Lines {
		if !l.Eligible {
			continue
		}
		switch l.Shortfall.Sign() {
		case 1:
			buys = append(buys, i)
			plan.TotalNeeded = plan.TotalNeeded.Add(l.Shortfall)
		case -1:
			sells = append(sells, i)
		}
	}

	if len(buys) > 0 {
		plan.Rationed = plan.TotalNeeded.GreaterThan(budget)
		plan.Ratio = decimal.NewFromInt(1)
		if plan.Rationed {
			plan.Ratio = budget.Div(plan.TotalNeeded)
		}
		for _, i := range buys {
			l := &plan.Lines[i]
			cash := l.Shortfall
			if plan.Rationed {
				cash = l.Shortfall.Mul(budget).Div(plan.TotalNeeded)
			}
			l.RecommendedCash = cash
			l.RecommendedQuantity = cash.Div(l.Price)
			plan.Allocated = plan.Allocated.Add(cash)
			plan.Buys = append(plan.Buys, *l)
		}
	}

	for _, i := range sells {
		l := &plan.Lines[i]
		l.RecommendedCash = l.Shortfall.Abs()
		l.RecommendedQuantity = l.RecommendedCash.Div(l.Price)
		l.ExceedsHolding = l.RecommendedQuantity.GreaterThan(l.Quantity)
		plan.Sells = append(plan.Sells, *l)
	}

	return plan
}

// TargetSum returns the sum of target weights. Compute does not require it
// to be 100.
func TargetSum(hs []model.Holding) decimal.Decimal {
	sum := decimal.Zero
	for _, h := range hs {
		sum = sum.Add(h.TargetWeightPercent)
	}
	return sum
}
