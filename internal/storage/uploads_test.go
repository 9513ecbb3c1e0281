package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/insightdelivered/due-invoice-extractor/internal/models"
)

func uploadLogBehaves(newLog func() UploadLog) {
	var (
		log UploadLog
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		log = newLog()
	})

	AfterEach(func() {
		if log != nil {
			log.Close()
		}
	})

	It("assigns an id and timestamp when missing", func() {
		u := &models.Upload{FileName: "dues.csv", FilePath: "1_dues.csv", Status: models.UploadCompleted}
		Expect(log.Record(ctx, u)).To(Succeed())
		Expect(u.ID).NotTo(BeEmpty())
		Expect(u.ProcessedAt.IsZero()).To(BeFalse())
	})

	It("lists uploads newest first", func() {
		base := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)
		older := &models.Upload{FileName: "old.csv", FilePath: "1_old.csv", MimeType: "text/csv",
			Status: models.UploadCompleted, DueRecordsCount: 3, ProcessedAt: base}
		newer := &models.Upload{FileName: "new.xlsx", FilePath: "2_new.xlsx", FileSize: 2048,
			Status: models.UploadFailed, Error: "failed to parse xlsx file", ProcessedAt: base.Add(time.Hour)}

		Expect(log.Record(ctx, older)).To(Succeed())
		Expect(log.Record(ctx, newer)).To(Succeed())

		uploads, err := log.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(uploads).To(HaveLen(2))
		Expect(uploads[0].FileName).To(Equal("new.xlsx"))
		Expect(uploads[0].Status).To(Equal(models.UploadFailed))
		Expect(uploads[0].Error).To(Equal("failed to parse xlsx file"))
		Expect(uploads[0].FileSize).To(Equal(int64(2048)))
		Expect(uploads[1].FileName).To(Equal("old.csv"))
		Expect(uploads[1].DueRecordsCount).To(Equal(3))
		Expect(uploads[1].ProcessedAt.Equal(base)).To(BeTrue())
	})
}

var _ = Describe("BoltLog", func() {
	uploadLogBehaves(func() UploadLog {
		l, err := NewBoltLog(filepath.Join(GinkgoT().TempDir(), "uploads.db"))
		Expect(err).NotTo(HaveOccurred())
		return l
	})

	It("fails on an unusable path", func() {
		_, err := NewBoltLog(filepath.Join(GinkgoT().TempDir(), "missing", "dir", "uploads.db"))
		Expect(err).To(HaveOccurred())
	})

	It("persists across reopen", func() {
		path := filepath.Join(GinkgoT().TempDir(), "uploads.db")
		l, err := NewBoltLog(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(l.Record(context.Background(), &models.Upload{FileName: "a.csv"})).To(Succeed())
		Expect(l.Close()).To(Succeed())

		l, err = NewBoltLog(path)
		Expect(err).NotTo(HaveOccurred())
		defer l.Close()
		uploads, err := l.List(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(uploads).To(HaveLen(1))
	})
})

var _ = Describe("PostgresLog", func() {
	dsn := os.Getenv("DUEX_TEST_DATABASE_URL")

	BeforeEach(func() {
		if dsn == "" {
			Skip("DUEX_TEST_DATABASE_URL not set")
		}
	})

	uploadLogBehaves(func() UploadLog {
		ctx := context.Background()
		l, err := NewPostgresLog(ctx, dsn)
		Expect(err).NotTo(HaveOccurred())
		_, err = l.pool.Exec(ctx, `TRUNCATE file_uploads`)
		Expect(err).NotTo(HaveOccurred())
		return l
	})
})
