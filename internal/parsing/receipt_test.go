package parsing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Receipt", func() {
	Describe("CalculatedTotal", func() {
		It("sums the printed item totals", func() {
			receipt := &Receipt{Items: []Item{
				{Name: "Milch", Total: 1.29},
				{Name: "Brot", Total: 2.49},
			}}
			Expect(receipt.CalculatedTotal()).To(BeNumerically("~", 3.78, 1e-9))
		})

		It("is zero for an empty receipt", func() {
			Expect((&Receipt{}).CalculatedTotal()).To(Equal(0.0))
		})
	})

	Describe("Validate", func() {
		It("accepts an exact match", func() {
			receipt := &Receipt{
				TotalAmount: 1.29,
				Items:       []Item{{Total: 1.29}},
			}
			consistent, difference := receipt.Validate()
			Expect(consistent).To(BeTrue())
			Expect(difference).To(Equal(0.0))
		})

		It("tolerates sub-cent floating point drift", func() {
			receipt := &Receipt{
				TotalAmount: 0.3,
				Items:       []Item{{Total: 0.1}, {Total: 0.2}},
			}
			consistent, difference := receipt.Validate()
			Expect(consistent).To(BeTrue())
			Expect(difference).To(Equal(0.0))
		})

		It("rejects a one-cent mismatch", func() {
			receipt := &Receipt{
				TotalAmount: 10.00,
				Items:       []Item{{Total: 9.99}},
			}
			consistent, difference := receipt.Validate()
			Expect(consistent).To(BeFalse())
			Expect(difference).To(BeNumerically("~", 0.01, 1e-9))
		})

		It("reports a negative difference when items exceed the total", func() {
			receipt := &Receipt{
				TotalAmount: 1.29,
				Items:       []Item{{Total: 9.99}},
			}
			consistent, difference := receipt.Validate()
			Expect(consistent).To(BeFalse())
			Expect(difference).To(BeNumerically("~", -8.70, 1e-9))
		})
	})
})
