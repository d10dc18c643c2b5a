package receipt

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mwurst/bontrack/internal/parsing"
)

var _ = Describe("BoltDB", func() {
	var (
		tempDir string
		db      *BoltDB
		err     error
	)

	BeforeEach(func() {
		tempDir, err = os.MkdirTemp("", "bontrack-test-*")
		Expect(err).NotTo(HaveOccurred())

		db, err = NewBoltDB(filepath.Join(tempDir, "test.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
		os.RemoveAll(tempDir)
	})

	newArchived := func(id, date, bonNr string) *Receipt {
		return &Receipt{
			ID: id,
			Receipt: parsing.Receipt{
				StoreName:   "REWE Markt GmbH",
				City:        "Berlin",
				TotalAmount: 1.29,
				Items:       []parsing.Item{{Name: "Milch", Quantity: 2, PricePerUnit: 0.65, Total: 1.29}},
				Date:        date,
				Time:        "14:05",
				BonNr:       bonNr,
			},
			Filename:    id + "_bon.pdf",
			ContentType: "application/pdf",
			Consistent:  true,
			CreatedAt:   time.Date(2024, 2, 1, 15, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2024, 2, 1, 15, 0, 0, 0, time.UTC),
		}
	}

	Describe("SaveReceipt and GetReceipt", func() {
		It("round-trips a receipt with its items", func() {
			saved := newArchived("id-1", "01.02.2024", "4711")
			Expect(db.SaveReceipt(saved)).To(Succeed())

			loaded, err := db.GetReceipt("id-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(saved))
		})

		It("returns an error for an unknown ID", func() {
			_, err := db.GetReceipt("nope")
			Expect(err).To(HaveOccurred())
		})

		It("allows re-saving the same receipt under its own ID", func() {
			saved := newArchived("id-1", "01.02.2024", "4711")
			Expect(db.SaveReceipt(saved)).To(Succeed())
			saved.UpdatedAt = saved.UpdatedAt.Add(time.Hour)
			Expect(db.SaveReceipt(saved)).To(Succeed())
		})
	})

	Describe("duplicate detection", func() {
		It("rejects a second receipt with the same date, time and Bon-Nr.", func() {
			Expect(db.SaveReceipt(newArchived("id-1", "01.02.2024", "4711"))).To(Succeed())

			err := db.SaveReceipt(newArchived("id-2", "01.02.2024", "4711"))
			Expect(err).To(MatchError(ErrDuplicateReceipt))
		})

		It("accepts receipts differing in any key component", func() {
			Expect(db.SaveReceipt(newArchived("id-1", "01.02.2024", "4711"))).To(Succeed())
			Expect(db.SaveReceipt(newArchived("id-2", "02.02.2024", "4711"))).To(Succeed())
			Expect(db.SaveReceipt(newArchived("id-3", "01.02.2024", "4712"))).To(Succeed())
		})

		It("never deduplicates receipts without the key triple", func() {
			Expect(db.SaveReceipt(newArchived("id-1", "", ""))).To(Succeed())
			Expect(db.SaveReceipt(newArchived("id-2", "", ""))).To(Succeed())

			receipts, err := db.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(HaveLen(2))
		})

		It("frees the key when the receipt is deleted", func() {
			Expect(db.SaveReceipt(newArchived("id-1", "01.02.2024", "4711"))).To(Succeed())
			Expect(db.DeleteReceipt("id-1")).To(Succeed())
			Expect(db.SaveReceipt(newArchived("id-2", "01.02.2024", "4711"))).To(Succeed())
		})
	})

	Describe("ListReceipts", func() {
		It("returns an empty slice for an empty database", func() {
			receipts, err := db.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).NotTo(BeNil())
			Expect(receipts).To(BeEmpty())
		})

		It("returns all saved receipts", func() {
			Expect(db.SaveReceipt(newArchived("id-1", "01.02.2024", "4711"))).To(Succeed())
			Expect(db.SaveReceipt(newArchived("id-2", "02.02.2024", "4712"))).To(Succeed())

			receipts, err := db.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(HaveLen(2))
		})
	})

	Describe("DeleteReceipt", func() {
		It("removes the receipt", func() {
			Expect(db.SaveReceipt(newArchived("id-1", "01.02.2024", "4711"))).To(Succeed())
			Expect(db.DeleteReceipt("id-1")).To(Succeed())

			_, err := db.GetReceipt("id-1")
			Expect(err).To(HaveOccurred())
		})

		It("returns an error for an unknown ID", func() {
			Expect(db.DeleteReceipt("nope")).To(HaveOccurred())
		})
	})
})
