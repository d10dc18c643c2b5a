package receipt

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tempDir string
		storage *LocalStorage
		err     error
	)

	BeforeEach(func() {
		tempDir, err = os.MkdirTemp("", "bontrack-storage-test-*")
		Expect(err).NotTo(HaveOccurred())

		storage, err = NewLocalStorage(filepath.Join(tempDir, "receipts"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	It("creates the base directory", func() {
		info, statErr := os.Stat(filepath.Join(tempDir, "receipts"))
		Expect(statErr).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	Describe("Save and Get", func() {
		It("round-trips file data", func() {
			path, saveErr := storage.Save("id-1_bon.pdf", []byte("%PDF-1.4 data"))
			Expect(saveErr).NotTo(HaveOccurred())
			Expect(path).To(Equal("id-1_bon.pdf"))

			data, getErr := storage.Get(path)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("%PDF-1.4 data"))
		})

		It("returns an error for a missing file", func() {
			_, getErr := storage.Get("missing.pdf")
			Expect(getErr).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("removes a saved file", func() {
			path, saveErr := storage.Save("id-1_bon.pdf", []byte("data"))
			Expect(saveErr).NotTo(HaveOccurred())

			Expect(storage.Delete(path)).To(Succeed())

			_, getErr := storage.Get(path)
			Expect(getErr).To(HaveOccurred())
		})

		It("returns an error for a missing file", func() {
			Expect(storage.Delete("missing.pdf")).To(HaveOccurred())
		})
	})
})
