package accesslog

import (
	"context"
	"errors"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	accesslogdm "github.com/frahmantamala/filehub/internal/core/datamodel/accesslog"
	"github.com/frahmantamala/filehub/internal/transport"
)

var _ = ginkgo.Describe("Access Log Service", func() {
	var (
		ctx  context.Context
		repo *mockRepository
		svc  *Service
		now  time.Time
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = &mockRepository{}
		svc = NewService(repo)
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return now }

		for _, age := range []time.Duration{time.Hour, 10 * 24 * time.Hour, 40 * 24 * time.Hour, 100 * 24 * time.Hour} {
			gomega.Expect(repo.Insert(ctx, &accesslogdm.AccessLog{IPAddress: "1.1.1.1", Endpoint: "/x", CreatedAt: now.Add(-age)})).To(gomega.Succeed())
		}
	})

	ginkgo.It("returns the most recent entries first", func() {
		entries, err := svc.Recent(ctx, 2)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(entries).To(gomega.HaveLen(2))
		gomega.Expect(entries[0].CreatedAt).To(gomega.Equal(now.Add(-time.Hour)))
	})

	ginkgo.It("limits the log listing to the last 30 days", func() {
		entries, total, err := svc.ListLast30Days(ctx, transport.Page{Page: 1, PerPage: LogsPerPage})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(total).To(gomega.Equal(int64(2)))
		gomega.Expect(entries).To(gomega.HaveLen(2))
		gomega.Expect(repo.lastSince).To(gomega.Equal(now.Add(-30 * 24 * time.Hour)))
	})

	ginkgo.It("purges entries older than the retention window", func() {
		deleted, err := svc.PurgeOlderThan(ctx, 90)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(deleted).To(gomega.Equal(int64(1)))
		gomega.Expect(repo.lastCutoff).To(gomega.Equal(now.AddDate(0, 0, -90)))
	})

	ginkgo.It("falls back to the default retention", func() {
		_, err := svc.PurgeOlderThan(ctx, 0)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(repo.lastCutoff).To(gomega.Equal(now.AddDate(0, 0, -DefaultRetentionDays)))
	})

	ginkgo.It("surfaces repository errors", func() {
		repo.setError(errors.New("db down"))
		_, err := svc.PurgeOlderThan(ctx, 30)
		gomega.Expect(err).To(gomega.HaveOccurred())
	})
})
