package engine

// Portfolio holds the cash/holdings state of a single simulation run.
// Exactly one instance exists per run, owned by the simulator; only
// Buy and Sell mutate it. Short selling is not modeled, so cash and
// holdings never go negative.
type Portfolio struct {
	InitialCapital  float64
	Cash            float64
	Holdings        float64
	TotalCommission float64
}

// NewPortfolio creates a portfolio with all capital in cash.
func NewPortfolio(initialCapital float64) *Portfolio {
	return &Portfolio{
		InitialCapital: initialCapital,
		Cash:           initialCapital,
	}
}

// TotalValue returns cash plus holdings valued at the given price.
func (p *Portfolio) TotalValue(price float64) float64 {
	return p.Cash + p.Holdings*price
}

// PositionValue returns the holdings valued at the given price.
func (p *Portfolio) PositionValue(price float64) float64 {
	return p.Holdings * price
}

// Buy deploys all available cash at the given price, sizing the
// quantity so that price plus commission exactly consumes the cash.
// Returns the executed quantity and commission, both zero when there
// is no cash to deploy.
func (p *Portfolio) Buy(price, commissionRate float64) (quantity, commission float64) {
	if p.Cash <= 0 {
		return 0, 0
	}

	quantity = p.Cash / (price * (1 + commissionRate))
	commission = quantity * price * commissionRate

	p.Holdings += quantity
	p.Cash -= quantity*price + commission
	p.TotalCommission += commission

	return quantity, commission
}

// Sell liquidates all holdings at the given price. Returns the
// executed quantity and commission, both zero when there is nothing
// to sell.
func (p *Portfolio) Sell(price, commissionRate float64) (quantity, commission float64) {
	if p.Holdings <= 0 {
		return 0, 0
	}

	quantity = p.Holdings
	gross := quantity * price
	commission = gross * commissionRate

	p.Holdings = 0
	p.Cash += gross - commission
	p.TotalCommission += commission

	return quantity, commission
}
