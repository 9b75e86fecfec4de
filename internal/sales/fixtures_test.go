package sales

import "time"

func price(p float64) *float64 { return &p }

func soldFlag(b bool) *bool { return &b }

func onDay(month time.Month, day int) time.Time {
	return time.Date(2023, month, day, 12, 0, 0, 0, time.UTC)
}

func newTx(title string, p *float64, category string, at time.Time, sold *bool) *Transaction {
	return &Transaction{
		Title:       title,
		Description: title + " description",
		Price:       p,
		Category:    category,
		DateOfSale:  at,
		Sold:        sold,
	}
}
