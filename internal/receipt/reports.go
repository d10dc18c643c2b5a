package receipt

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ItemStats aggregates all purchases of one product across the archive.
type ItemStats struct {
	Name            string  `json:"name"`
	PurchaseCount   int     `json:"purchase_count"`
	TotalQuantity   float64 `json:"total_quantity"`
	TotalSpent      float64 `json:"total_spent"`
	AvgPricePerUnit float64 `json:"avg_price_per_unit"`
	MinPrice        float64 `json:"min_price"`
	MaxPrice        float64 `json:"max_price"`
}

// MonthStats aggregates spending for one calendar month.
type MonthStats struct {
	Month            string  `json:"month"` // MM.YYYY
	ReceiptCount     int     `json:"receipt_count"`
	TotalSpent       float64 `json:"total_spent"`
	AvgReceiptAmount float64 `json:"avg_receipt_amount"`
}

// StoreStats aggregates spending for one store location.
type StoreStats struct {
	City             string  `json:"city"`
	StoreName        string  `json:"store_name"`
	ReceiptCount     int     `json:"receipt_count"`
	TotalSpent       float64 `json:"total_spent"`
	AvgReceiptAmount float64 `json:"avg_receipt_amount"`
}

// ReceiptSummary is one row of the top-receipts report.
type ReceiptSummary struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	BonNr         string  `json:"bon_nr"`
	StoreName     string  `json:"store_name"`
	City          string  `json:"city"`
	TotalAmount   float64 `json:"total_amount"`
	PaymentMethod string  `json:"payment_methode"`
	ItemCount     int     `json:"item_count"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TopItems returns the most frequently purchased items, ordered by purchase
// count and then total spend.
func (s *Service) TopItems(limit int) ([]ItemStats, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}

	byName := make(map[string]*ItemStats)
	for _, receipt := range receipts {
		for _, item := range receipt.Items {
			stats, ok := byName[item.Name]
			if !ok {
				stats = &ItemStats{
					Name:     item.Name,
					MinPrice: item.PricePerUnit,
					MaxPrice: item.PricePerUnit,
				}
				byName[item.Name] = stats
			}
			stats.PurchaseCount++
			stats.TotalQuantity += item.Quantity
			stats.TotalSpent += item.Total
			stats.AvgPricePerUnit += item.PricePerUnit
			stats.MinPrice = math.Min(stats.MinPrice, item.PricePerUnit)
			stats.MaxPrice = math.Max(stats.MaxPrice, item.PricePerUnit)
		}
	}

	items := make([]ItemStats, 0, len(byName))
	for _, stats := range byName {
		stats.AvgPricePerUnit = round2(stats.AvgPricePerUnit / float64(stats.PurchaseCount))
		stats.TotalSpent = round2(stats.TotalSpent)
		items = append(items, *stats)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].PurchaseCount != items[j].PurchaseCount {
			return items[i].PurchaseCount > items[j].PurchaseCount
		}
		return items[i].TotalSpent > items[j].TotalSpent
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// SpendingByMonth groups spending by month, newest first. The month is taken
// from the textual DD.MM.YYYY date; receipts without a date are skipped.
func (s *Service) SpendingByMonth() ([]MonthStats, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}

	byMonth := make(map[string]*MonthStats)
	for _, receipt := range receipts {
		if len(receipt.Date) != 10 {
			continue
		}
		month := receipt.Date[3:]
		stats, ok := byMonth[month]
		if !ok {
			stats = &MonthStats{Month: month}
			byMonth[month] = stats
		}
		stats.ReceiptCount++
		stats.TotalSpent += receipt.TotalAmount
	}

	months := make([]MonthStats, 0, len(byMonth))
	for _, stats := range byMonth {
		stats.TotalSpent = round2(stats.TotalSpent)
		stats.AvgReceiptAmount = round2(stats.TotalSpent / float64(stats.ReceiptCount))
		months = append(months, *stats)
	}

	sort.Slice(months, func(i, j int) bool {
		ti, erri := time.Parse("01.2006", months[i].Month)
		tj, errj := time.Parse("01.2006", months[j].Month)
		if erri != nil || errj != nil {
			return months[i].Month > months[j].Month
		}
		return ti.After(tj)
	})
	return months, nil
}

// SpendingByStore groups spending by (city, store), biggest spend first.
func (s *Service) SpendingByStore() ([]StoreStats, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}

	byStore := make(map[string]*StoreStats)
	for _, receipt := range receipts {
		key := receipt.City + "|" + receipt.StoreName
		stats, ok := byStore[key]
		if !ok {
			stats = &StoreStats{City: receipt.City, StoreName: receipt.StoreName}
			byStore[key] = stats
		}
		stats.ReceiptCount++
		stats.TotalSpent += receipt.TotalAmount
	}

	stores := make([]StoreStats, 0, len(byStore))
	for _, stats := range byStore {
		stats.TotalSpent = round2(stats.TotalSpent)
		stats.AvgReceiptAmount = round2(stats.TotalSpent / float64(stats.ReceiptCount))
		stores = append(stores, *stats)
	}

	sort.Slice(stores, func(i, j int) bool {
		return stores[i].TotalSpent > stores[j].TotalSpent
	})
	return stores, nil
}

// TopReceipts returns the most expensive receipts.
func (s *Service) TopReceipts(limit int) ([]ReceiptSummary, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}

	summaries := make([]ReceiptSummary, 0, len(receipts))
	for _, receipt := range receipts {
		summaries = append(summaries, ReceiptSummary{
			ID:            receipt.ID,
			Date:          receipt.Date,
			Time:          receipt.Time,
			BonNr:         receipt.BonNr,
			StoreName:     receipt.StoreName,
			City:          receipt.City,
			TotalAmount:   receipt.TotalAmount,
			PaymentMethod: receipt.PaymentMethod,
			ItemCount:     len(receipt.Items),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].TotalAmount > summaries[j].TotalAmount
	})

	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}
