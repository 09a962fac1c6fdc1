package file

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/filehub/internal/auth"
	filedm "github.com/frahmantamala/filehub/internal/core/datamodel/file"
)

var _ = ginkgo.Describe("File Handler", func() {
	var (
		repo    *mockFileRepository
		store   *memoryStorage
		handler *Handler
		router  chi.Router
		caller  *auth.User
	)

	ginkgo.BeforeEach(func() {
		repo = newMockFileRepository()
		store = newMemoryStorage()
		svc := NewService(repo, store, &recordingPublisher{}, 64)
		handler = NewHandler(svc, 64)
		caller = owner

		router = chi.NewRouter()
		router.Get("/files/public", handler.Public)
		router.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					if caller != nil {
						req = req.WithContext(auth.ContextWithUser(req.Context(), caller))
					}
					next.ServeHTTP(w, req)
				})
			})
			r.Get("/files", handler.List)
			r.Get("/files/upload", handler.UploadForm)
			r.Post("/files/upload", handler.Upload)
			r.Get("/files/download/{id}", handler.Download)
			r.Delete("/files/delete/{id}", handler.Delete)
			r.Get("/files/detail/{id}", handler.Detail)
			r.Post("/files/{id}/permissions", handler.Grant)
			r.Get("/files/{id}/permissions", handler.ListGrants)
			r.Delete("/files/{id}/permissions/{grantID}", handler.Revoke)
			r.Get("/api/files", handler.APIList)
		})
	})

	multipartRequest := func(filename, content string, fields map[string]string) *http.Request {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		for k, v := range fields {
			gomega.Expect(mw.WriteField(k, v)).To(gomega.Succeed())
		}
		if filename != "" {
			part, err := mw.CreateFormFile("file", filename)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			_, _ = part.Write([]byte(content))
		}
		gomega.Expect(mw.Close()).To(gomega.Succeed())

		req := httptest.NewRequest(http.MethodPost, "/files/upload", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req
	}

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	seed := func(ownerID int64, public bool, name string) *filedm.File {
		key := strconv.FormatInt(ownerID, 10) + "/" + name
		store.blobs[key] = []byte("contents")
		return repo.seed(&filedm.File{
			OriginalFilename: name,
			Filename:         name + ".h",
			FilePath:         key,
			FileSize:         8,
			FileType:         TypeDocument,
			MimeType:         "text/plain",
			UploadDate:       time.Now(),
			UploadedBy:       ownerID,
			IsPublic:         public,
		})
	}

	ginkgo.Describe("Upload", func() {
		ginkgo.It("creates the file from the multipart form", func() {
			// Given
			req := multipartRequest("hello.txt", "hi there", map[string]string{"description": "greeting", "is_public": "TRUE"})

			// When
			rec := serve(req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))
			var resp UploadResponseV1
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.File.Filename).To(gomega.Equal("hello.txt"))
			gomega.Expect(resp.File.IsPublic).To(gomega.BeTrue())
			gomega.Expect(resp.File.Description).To(gomega.Equal("greeting"))
			gomega.Expect(resp.File.DownloadURL).To(gomega.Equal("/api/files/" + strconv.FormatInt(resp.File.ID, 10) + "/download"))
		})

		ginkgo.It("returns 400 without a file part", func() {
			rec := serve(multipartRequest("", "", map[string]string{"description": "x"}))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("returns 400 for a disallowed extension", func() {
			rec := serve(multipartRequest("run.sh", "#!/bin/sh", nil))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(store.blobs).To(gomega.BeEmpty())
		})

		ginkgo.It("returns 413 when the body exceeds the ceiling", func() {
			big := strings.Repeat("x", 2<<20)
			rec := serve(multipartRequest("big.txt", big, nil))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusRequestEntityTooLarge))
		})

		ginkgo.It("returns 400 when the file alone exceeds the ceiling", func() {
			rec := serve(multipartRequest("mid.txt", strings.Repeat("x", 100), nil))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("describes the accepted uploads", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/files/upload", nil))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"max_size":64`))
		})
	})

	ginkgo.Describe("Download", func() {
		ginkgo.It("streams the blob as an attachment", func() {
			f := seed(owner.ID, false, "report.txt")

			rec := serve(httptest.NewRequest(http.MethodGet, "/files/download/"+strconv.FormatInt(f.ID, 10), nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(rec.Header().Get("Content-Disposition")).To(gomega.Equal(`attachment; filename=report.txt`))
			gomega.Expect(rec.Body.String()).To(gomega.Equal("contents"))
		})

		ginkgo.It("returns 403 for a stranger", func() {
			f := seed(owner.ID, false, "report.txt")
			caller = stranger

			rec := serve(httptest.NewRequest(http.MethodGet, "/files/download/"+strconv.FormatInt(f.ID, 10), nil))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("returns 400 for a malformed id", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/files/download/abc", nil))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("returns 404 when the blob is gone", func() {
			f := seed(owner.ID, false, "gone.txt")
			delete(store.blobs, f.FilePath)

			rec := serve(httptest.NewRequest(http.MethodGet, "/files/download/"+strconv.FormatInt(f.ID, 10), nil))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNotFound))
		})
	})

	ginkgo.It("deletes an owned file", func() {
		f := seed(owner.ID, false, "old.txt")

		rec := serve(httptest.NewRequest(http.MethodDelete, "/files/delete/"+strconv.FormatInt(f.ID, 10), nil))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(repo.files).To(gomega.BeEmpty())
		gomega.Expect(store.blobs).To(gomega.BeEmpty())
	})

	ginkgo.It("lists public files without a session", func() {
		seed(owner.ID, true, "shared.txt")
		seed(owner.ID, false, "private.txt")
		caller = nil

		rec := serve(httptest.NewRequest(http.MethodGet, "/files/public?search=txt", nil))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		var resp FileListResponseV1
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
		gomega.Expect(resp.Files).To(gomega.HaveLen(1))
		gomega.Expect(resp.Files[0].Filename).To(gomega.Equal("shared.txt"))
		gomega.Expect(resp.Pagination.PerPage).To(gomega.Equal(20))
	})

	ginkgo.It("caps the API page size", func() {
		for i := 0; i < 3; i++ {
			seed(owner.ID, false, "f"+strconv.Itoa(i)+".txt")
		}

		rec := serve(httptest.NewRequest(http.MethodGet, "/api/files?per_page=500&page=1", nil))

		var resp FileListResponseV1
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
		gomega.Expect(resp.Pagination.PerPage).To(gomega.Equal(100))
		gomega.Expect(resp.Pagination.Total).To(gomega.Equal(int64(3)))
		gomega.Expect(resp.Pagination.Pages).To(gomega.Equal(1))
	})

	ginkgo.It("renders the detail view with grants for a grant holder", func() {
		f := seed(owner.ID, false, "plan.txt")
		body := `{"user_id": 3, "permission_type": "Write"}`
		rec := serve(httptest.NewRequest(http.MethodPost, "/files/"+strconv.FormatInt(f.ID, 10)+"/permissions", strings.NewReader(body)))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))

		caller = grantee
		rec = serve(httptest.NewRequest(http.MethodGet, "/files/detail/"+strconv.FormatInt(f.ID, 10), nil))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		var resp FileDetailResponseV1
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
		gomega.Expect(resp.OwnerID).To(gomega.Equal(owner.ID))
		gomega.Expect(resp.Permissions).To(gomega.HaveLen(1))
		gomega.Expect(resp.Permissions[0].PermissionType).To(gomega.Equal(auth.AccessWrite))
	})

	ginkgo.It("revokes a grant", func() {
		f := seed(owner.ID, false, "plan.txt")
		g := &filedm.FilePermission{FileID: f.ID, UserID: grantee.ID, PermissionType: auth.AccessRead}
		_, _ = repo.CreateGrant(context.Background(), g)

		path := "/files/" + strconv.FormatInt(f.ID, 10) + "/permissions/" + strconv.FormatInt(g.ID, 10)
		gomega.Expect(serve(httptest.NewRequest(http.MethodDelete, path, nil)).Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(serve(httptest.NewRequest(http.MethodDelete, path, nil)).Code).To(gomega.Equal(http.StatusNotFound))
	})
})
