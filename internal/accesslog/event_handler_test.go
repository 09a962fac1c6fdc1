package accesslog

import (
	"context"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/filehub/internal/core/events"
)

var _ = ginkgo.Describe("EventHandler", func() {
	var (
		sink    *captureSink
		handler *EventHandler
		bus     *events.EventBus
	)

	ginkgo.BeforeEach(func() {
		sink = &captureSink{}
		handler = NewEventHandler(sink, newDiscardLogger())
		bus = events.NewEventBus(newDiscardLogger())
		handler.RegisterEventHandlers(bus)
	})

	ginkgo.It("records a download with file, user and client details", func() {
		// Given
		e := events.NewFileEvent(events.EventTypeFileDownloaded, 7, 3, "plan.pdf", "size: 2.0 KiB").WithClient("10.1.1.1", "curl/8")

		// When
		gomega.Expect(bus.PublishSync(context.Background(), e)).To(gomega.Succeed())

		// Then
		entries := sink.all()
		gomega.Expect(entries).To(gomega.HaveLen(1))
		got := entries[0]
		gomega.Expect(got.Action).To(gomega.Equal(ActionDownload))
		gomega.Expect(*got.FileID).To(gomega.Equal(int64(7)))
		gomega.Expect(*got.UserID).To(gomega.Equal(int64(3)))
		gomega.Expect(got.IPAddress).To(gomega.Equal("10.1.1.1"))
		gomega.Expect(got.Details).To(gomega.Equal("plan.pdf (size: 2.0 KiB)"))
		gomega.Expect(got.StatusCode).To(gomega.Equal(200))
	})

	ginkgo.It("records a failed upload without a file id", func() {
		e := events.NewFileEvent(events.EventTypeFileUploadFailed, 0, 3, "x.txt", "disk full")
		gomega.Expect(bus.PublishSync(context.Background(), e)).To(gomega.Succeed())

		got := sink.all()[0]
		gomega.Expect(got.Action).To(gomega.Equal(ActionUploadFailed))
		gomega.Expect(got.FileID).To(gomega.BeNil())
		gomega.Expect(got.StatusCode).To(gomega.Equal(500))
	})

	ginkgo.It("records failed logins as anonymous 401 rows", func() {
		e := events.NewAuthEvent(events.EventTypeUserLoginFailed, 0, "mallory", "")
		gomega.Expect(bus.PublishSync(context.Background(), e)).To(gomega.Succeed())

		got := sink.all()[0]
		gomega.Expect(got.Action).To(gomega.Equal(ActionLoginFailed))
		gomega.Expect(got.UserID).To(gomega.BeNil())
		gomega.Expect(got.StatusCode).To(gomega.Equal(401))
		gomega.Expect(got.Details).To(gomega.Equal("username: mallory"))
	})

	ginkgo.It("handles asynchronous publication", func() {
		e := events.NewAuthEvent(events.EventTypeUserLogout, 5, "alice", "")
		gomega.Expect(bus.Publish(context.Background(), e)).To(gomega.Succeed())
		bus.Wait()

		gomega.Eventually(sink.all, time.Second).Should(gomega.HaveLen(1))
		gomega.Expect(sink.all()[0].Action).To(gomega.Equal(ActionLogout))
	})

	ginkgo.It("rejects events of the wrong shape", func() {
		wrong := events.NewAuthEvent(events.EventTypeFileDeleted, 5, "alice", "")
		gomega.Expect(handler.HandleFileEvent(context.Background(), wrong)).To(gomega.HaveOccurred())
	})
})
