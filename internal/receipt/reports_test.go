package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mwurst/bontrack/internal/parsing"
)

var _ = Describe("Reports", func() {
	var (
		db      *mockDB
		service *Service
	)

	BeforeEach(func() {
		db = newMockDB()
		service = NewService(db, &mockExtractor{}, newMockStorage())

		db.receipts["id-1"] = &Receipt{
			ID: "id-1",
			Receipt: parsing.Receipt{
				StoreName:   "REWE Markt GmbH",
				City:        "Berlin",
				TotalAmount: 3.78,
				Date:        "01.02.2024",
				Items: []parsing.Item{
					{Name: "Milch", Quantity: 2, PricePerUnit: 0.65, Total: 1.29},
					{Name: "Brot", Quantity: 1, PricePerUnit: 2.49, Total: 2.49},
				},
			},
		}
		db.receipts["id-2"] = &Receipt{
			ID: "id-2",
			Receipt: parsing.Receipt{
				StoreName:   "REWE Markt GmbH",
				City:        "Berlin",
				TotalAmount: 0.55,
				Date:        "15.02.2024",
				Items: []parsing.Item{
					{Name: "Milch", Quantity: 1, PricePerUnit: 0.55, Total: 0.55},
				},
			},
		}
		db.receipts["id-3"] = &Receipt{
			ID: "id-3",
			Receipt: parsing.Receipt{
				StoreName:   "REWE City",
				City:        "Hamburg",
				TotalAmount: 9.99,
				Date:        "03.01.2024",
				Items: []parsing.Item{
					{Name: "Wein", Quantity: 1, PricePerUnit: 9.99, Total: 9.99},
				},
			},
		}
	})

	Describe("TopItems", func() {
		It("aggregates purchases per item name", func() {
			items, err := service.TopItems(20)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(3))

			milch := items[0]
			Expect(milch.Name).To(Equal("Milch"))
			Expect(milch.PurchaseCount).To(Equal(2))
			Expect(milch.TotalQuantity).To(Equal(3.0))
			Expect(milch.TotalSpent).To(Equal(1.84))
			Expect(milch.AvgPricePerUnit).To(Equal(0.60))
			Expect(milch.MinPrice).To(Equal(0.55))
			Expect(milch.MaxPrice).To(Equal(0.65))
		})

		It("breaks count ties by total spend", func() {
			items, err := service.TopItems(20)
			Expect(err).NotTo(HaveOccurred())
			Expect(items[1].Name).To(Equal("Wein"))
			Expect(items[2].Name).To(Equal("Brot"))
		})

		It("honors the limit", func() {
			items, err := service.TopItems(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
		})
	})

	Describe("SpendingByMonth", func() {
		It("groups receipts by month, newest first", func() {
			months, err := service.SpendingByMonth()
			Expect(err).NotTo(HaveOccurred())
			Expect(months).To(HaveLen(2))

			Expect(months[0].Month).To(Equal("02.2024"))
			Expect(months[0].ReceiptCount).To(Equal(2))
			Expect(months[0].TotalSpent).To(Equal(4.33))
			Expect(months[0].AvgReceiptAmount).To(BeNumerically("~", 2.165, 0.006))

			Expect(months[1].Month).To(Equal("01.2024"))
			Expect(months[1].ReceiptCount).To(Equal(1))
		})

		It("skips receipts without a parsed date", func() {
			db.receipts["id-4"] = &Receipt{ID: "id-4", Receipt: parsing.Receipt{TotalAmount: 5}}

			months, err := service.SpendingByMonth()
			Expect(err).NotTo(HaveOccurred())
			Expect(months).To(HaveLen(2))
		})
	})

	Describe("SpendingByStore", func() {
		It("groups by city and store, biggest spend first", func() {
			stores, err := service.SpendingByStore()
			Expect(err).NotTo(HaveOccurred())
			Expect(stores).To(HaveLen(2))

			Expect(stores[0].City).To(Equal("Hamburg"))
			Expect(stores[0].TotalSpent).To(Equal(9.99))
			Expect(stores[1].City).To(Equal("Berlin"))
			Expect(stores[1].ReceiptCount).To(Equal(2))
			Expect(stores[1].TotalSpent).To(Equal(4.33))
		})
	})

	Describe("TopReceipts", func() {
		It("orders receipts by total amount", func() {
			receipts, err := service.TopReceipts(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(HaveLen(3))
			Expect(receipts[0].ID).To(Equal("id-3"))
			Expect(receipts[0].ItemCount).To(Equal(1))
			Expect(receipts[1].ID).To(Equal("id-1"))
			Expect(receipts[2].ID).To(Equal("id-2"))
		})

		It("honors the limit", func() {
			receipts, err := service.TopReceipts(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(HaveLen(1))
			Expect(receipts[0].ID).To(Equal("id-3"))
		})
	})
})
