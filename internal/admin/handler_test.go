package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/filehub/internal/accesslog"
	"github.com/frahmantamala/filehub/internal/backup"
	"github.com/frahmantamala/filehub/internal/file"
)

var _ = ginkgo.Describe("Admin Handler", func() {
	var (
		stats   *mockStats
		files   *mockFiles
		logs    *mockLogs
		backups *mockBackups
		handler *Handler
	)

	ginkgo.BeforeEach(func() {
		stats = &mockStats{totals: Totals{Users: 1, Files: 1, Size: 1536}}
		files = &mockFiles{files: []*file.File{{ID: 9, OriginalFilename: "a.txt", FileSize: 10}}}
		logs = &mockLogs{entries: []*accesslog.Entry{{ID: 1}, {ID: 2}}}
		backups = &mockBackups{report: &backup.Report{Success: true, Message: "ok"}}
		handler = NewHandler(NewService(stats, files, logs, backups))
	})

	ginkgo.It("renders the dashboard with a human size", func() {
		// When
		rec := httptest.NewRecorder()
		handler.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/admin/", nil))

		// Then
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		var body map[string]interface{}
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
		gomega.Expect(body["total_users"]).To(gomega.BeNumerically("==", 1))
		gomega.Expect(body["total_size_human"]).To(gomega.Equal("1.5 KiB"))
		gomega.Expect(body).To(gomega.HaveKey("daily_uploads"))
	})

	ginkgo.It("pages the file listing at 20 per page", func() {
		// When
		rec := httptest.NewRecorder()
		handler.Files(rec, httptest.NewRequest(http.MethodGet, "/admin/files?page=2&per_page=100&search=a", nil))

		// Then
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(files.query.Limit).To(gomega.Equal(20))
		gomega.Expect(files.query.Offset).To(gomega.Equal(20))
		var body file.FileListResponseV1
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
		gomega.Expect(body.Files).To(gomega.HaveLen(1))
		gomega.Expect(body.Search).To(gomega.Equal("a"))
	})

	ginkgo.It("pages the log listing at 50 per page", func() {
		// When
		rec := httptest.NewRecorder()
		handler.Logs(rec, httptest.NewRequest(http.MethodGet, "/admin/logs", nil))

		// Then
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(logs.page.PerPage).To(gomega.Equal(accesslog.LogsPerPage))
		var body LogListResponseV1
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
		gomega.Expect(body.Logs).To(gomega.HaveLen(2))
		gomega.Expect(body.Pagination.Total).To(gomega.Equal(int64(2)))
	})

	ginkgo.It("returns 500 with the report when a backup run fails", func() {
		// Given
		backups.fail = true

		// When
		rec := httptest.NewRecorder()
		handler.RunBackup(rec, httptest.NewRequest(http.MethodPost, "/admin/backup", nil))

		// Then
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusInternalServerError))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("database backup failed"))
	})

	ginkgo.It("lists archives with human sizes", func() {
		// Given
		backups.archives = []backup.Archive{{Name: "db_20240101_000000.sql.gz", Kind: backup.KindDatabase, Size: 2048}}

		// When
		rec := httptest.NewRecorder()
		handler.Backups(rec, httptest.NewRequest(http.MethodGet, "/admin/backup", nil))

		// Then
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"size_human":"2.0 KiB"`))
	})
})
