package domain

// Money is a monetary amount in minor units (cents) with its currency code
type Money struct {
	Amount   int64  `bson:"amount" json:"amount"`
	Currency string `bson:"currency" json:"currency"`
}

// Surcharge is a named addition to the base freight rate
type Surcharge struct {
	Code   string `bson:"code" json:"code"`
	Label  string `bson:"label,omitempty" json:"label,omitempty"`
	Amount int64  `bson:"amount" json:"amount"`
}

// Pricing holds the components of a shipment quote. The total is always
// computed from the components, never stored.
type Pricing struct {
	Currency   string      `bson:"currency" json:"currency"`
	Base       int64       `bson:"base" json:"base"`
	Surcharges []Surcharge `bson:"surcharges,omitempty" json:"surcharges,omitempty"`
	Insurance  int64       `bson:"insurance" json:"insurance"`
	VAT        int64       `bson:"vat" json:"vat"`
	Discount   int64       `bson:"discount" json:"discount"`
}

// Total computes base + surcharges + insurance + vat - discount in
// minor units
func (p Pricing) Total() int64 {
	total := p.Base + p.Insurance + p.VAT - p.Discount
	for _, s := range p.Surcharges {
		total += s.Amount
	}
	return total
}

// TotalMoney returns the computed total with the pricing currency
func (p Pricing) TotalMoney() Money {
	return Money{Amount: p.Total(), Currency: p.Currency}
}
