package parsing

import "math"

// Item is one purchased line on a receipt. Total is the charged amount as
// printed and is authoritative; it is not necessarily Quantity*PricePerUnit
// because of rounding and discounts.
type Item struct {
	Name         string  `json:"name"`
	PricePerUnit float64 `json:"price_per_unit"`
	Quantity     float64 `json:"quantity"`
	Total        float64 `json:"total"`
}

// Receipt holds the reconstructed content of a single receipt. All fields are
// best-effort: anything the parser could not find keeps its zero value.
type Receipt struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	UIDNr     string `json:"uid_nr"`

	Items []Item `json:"items"`

	TotalAmount   float64 `json:"total_amount"`
	Taxes         float64 `json:"taxes"`
	PaymentMethod string  `json:"payment_methode"`
	AmountGiven   float64 `json:"amount_given"`
	Change        float64 `json:"change"`

	// Date (DD.MM.YYYY), Time (HH:MM) and BonNr form the natural
	// deduplication key. They are populated all together or not at all.
	// BonNr may carry leading zeros and is never treated as a number.
	Date  string `json:"date"`
	Time  string `json:"time"`
	BonNr string `json:"bon_nr"`
}

// CalculatedTotal sums the printed item totals.
func (r *Receipt) CalculatedTotal() float64 {
	var sum float64
	for _, item := range r.Items {
		sum += item.Total
	}
	return sum
}

// Validate compares the declared total against the sum of item totals. The
// difference is rounded to cents; the receipt is consistent when it stays
// below one cent. Advisory only: callers decide whether to log or reject.
func (r *Receipt) Validate() (bool, float64) {
	difference := math.Round((r.TotalAmount-r.CalculatedTotal())*100) / 100
	return math.Abs(difference) < 0.01, difference
}
