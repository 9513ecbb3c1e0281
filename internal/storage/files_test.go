package storage

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalFiles", func() {
	var (
		tmpDir string
		files  *LocalFiles
		at     time.Time
	)

	readStored := func(name string) string {
		data, err := os.ReadFile(filepath.Join(tmpDir, name))
		Expect(err).NotTo(HaveOccurred())
		return string(data)
	}

	BeforeEach(func() {
		tmpDir = filepath.Join(GinkgoT().TempDir(), "uploads")
		var err error
		files, err = NewLocalFiles(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		at = time.UnixMilli(1704700800123)
	})

	It("creates the storage directory", func() {
		info, err := os.Stat(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	Describe("StoredName", func() {
		It("prefixes the millisecond timestamp", func() {
			Expect(StoredName("invoices.xlsx", at)).To(Equal("1704700800123_invoices.xlsx"))
		})

		It("strips directory components", func() {
			Expect(StoredName("../../etc/passwd", at)).To(Equal("1704700800123_passwd"))
			Expect(StoredName(`C:\Users\me\dues.csv`, at)).To(Equal("1704700800123_dues.csv"))
		})

		It("falls back for empty names", func() {
			Expect(StoredName("", at)).To(Equal("1704700800123_upload"))
		})
	})

	Describe("Save", func() {
		var (
			stored string
			err    error
		)

		JustBeforeEach(func() {
			stored, err = files.Save("dues.csv", []byte("Party,Bill\n"), at)
		})

		It("writes the file under its stored name", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(Equal("1704700800123_dues.csv"))

			Expect(readStored(stored)).To(Equal("Party,Bill\n"))
		})

		When("the same name is saved at the same instant", func() {
			It("refuses to overwrite", func() {
				Expect(err).NotTo(HaveOccurred())
				_, again := files.Save("dues.csv", []byte("other"), at)
				Expect(again).To(MatchError(ErrExists))

				Expect(readStored(stored)).To(Equal("Party,Bill\n"))
			})
		})
	})
})
