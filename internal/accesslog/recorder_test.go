package accesslog

import (
	"errors"
	"strconv"
	"strings"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Recorder", func() {
	var repo *mockRepository

	ginkgo.BeforeEach(func() {
		repo = &mockRepository{}
	})

	ginkgo.It("persists every queued entry before Shutdown returns", func() {
		// Given
		rec := NewRecorder(repo, RecorderConfig{MaxWorkers: 3, QueueSize: 500}, newDiscardLogger())

		// When
		for i := 0; i < 200; i++ {
			rec.Record(&Entry{Endpoint: "/files/" + strconv.Itoa(i), Method: "GET", StatusCode: 200, IPAddress: "10.0.0.1"})
		}
		rec.Shutdown()

		// Then
		gomega.Expect(repo.snapshot()).To(gomega.HaveLen(200))
	})

	ginkgo.It("drops entries recorded after Shutdown", func() {
		rec := NewRecorder(repo, RecorderConfig{MaxWorkers: 1, QueueSize: 4}, newDiscardLogger())
		rec.Shutdown()
		rec.Shutdown()

		gomega.Expect(func() { rec.Record(&Entry{Endpoint: "/late"}) }).NotTo(gomega.Panic())
		gomega.Expect(repo.snapshot()).To(gomega.BeEmpty())
	})

	ginkgo.It("fills in the timestamp and a placeholder address", func() {
		rec := NewRecorder(repo, RecorderConfig{MaxWorkers: 1}, newDiscardLogger())
		rec.Record(&Entry{Endpoint: "/x", UserAgent: strings.Repeat("u", 600)})
		rec.Shutdown()

		rows := repo.snapshot()
		gomega.Expect(rows).To(gomega.HaveLen(1))
		gomega.Expect(rows[0].CreatedAt.IsZero()).To(gomega.BeFalse())
		gomega.Expect(rows[0].IPAddress).To(gomega.Equal("unknown"))
		gomega.Expect(rows[0].UserAgent).To(gomega.HaveLen(500))
	})

	ginkgo.It("keeps running when the repository fails", func() {
		repo.setError(errors.New("db down"))
		rec := NewRecorder(repo, RecorderConfig{MaxWorkers: 2}, newDiscardLogger())
		rec.Record(&Entry{Endpoint: "/x"})
		rec.Record(&Entry{Endpoint: "/y"})

		gomega.Expect(rec.Shutdown).NotTo(gomega.Panic())
	})
})
