package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/filehub/internal"
)

func mustPast() time.Time {
	return time.Now().Add(-48 * time.Hour)
}

var _ = ginkgo.Describe("Handler", func() {
	var (
		handler  *Handler
		service  *Service
		mockRepo *mockUserRepository
	)

	post := func(h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec
	}

	ginkgo.BeforeEach(func() {
		mockRepo = newMockUserRepository()
		service = NewService(mockRepo, NewJWTTokenGenerator("test-secret-test-secret-test-secret"), nil, ServiceConfig{BCryptCost: bcrypt.MinCost})
		handler = NewHandler(service, CookieConfig{Name: "sid"})
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("sets an HttpOnly Lax session cookie", func() {
			// When
			rec := post(handler.Login, LoginDTO{Username: "alice", Password: "correct_password"})

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			cookies := rec.Result().Cookies()
			gomega.Expect(cookies).To(gomega.HaveLen(1))
			gomega.Expect(cookies[0].Name).To(gomega.Equal("sid"))
			gomega.Expect(cookies[0].HttpOnly).To(gomega.BeTrue())
			gomega.Expect(cookies[0].SameSite).To(gomega.Equal(http.SameSiteLaxMode))
		})

		ginkgo.It("answers 401 for bad credentials", func() {
			rec := post(handler.Login, LoginDTO{Username: "alice", Password: "bad"})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("answers 400 for missing fields", func() {
			rec := post(handler.Login, map[string]string{"username": "alice"})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("Register", func() {
		ginkgo.It("creates the account", func() {
			rec := post(handler.Register, RegisterDTO{Username: "bob", Email: "bob@example.com", Password: "secret1"})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))
		})

		ginkgo.It("answers 400 for duplicates and validation errors", func() {
			gomega.Expect(post(handler.Register, RegisterDTO{Username: "alice", Email: "x@example.com", Password: "secret1"}).Code).
				To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(post(handler.Register, RegisterDTO{Username: "", Email: "x@example.com", Password: "secret1"}).Code).
				To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var protected http.Handler

		ginkgo.BeforeEach(func() {
			protected = handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user, _ := UserFromContext(r.Context())
				gomega.Expect(internal.UserIDFromContext(r.Context())).To(gomega.Equal(user.ID))
				w.WriteHeader(http.StatusNoContent)
			}))
		})

		ginkgo.It("accepts the session cookie", func() {
			session, err := service.Authenticate(context.Background(), LoginDTO{Username: "alice", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: "sid", Value: session.Token})
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
		})

		ginkgo.It("accepts a bearer token", func() {
			session, err := service.Authenticate(context.Background(), LoginDTO{Username: "alice", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+session.Token)
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
		})

		ginkgo.It("rejects anonymous requests", func() {
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})

	ginkgo.Describe("Identify", func() {
		ginkgo.It("returns the token subject", func() {
			session, err := service.Authenticate(context.Background(), LoginDTO{Username: "alice", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: "sid", Value: session.Token})
			id, ok := handler.Identify(req)

			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(id).To(gomega.Equal(session.User.ID))
		})

		ginkgo.It("reports anonymous for a garbage token", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer nope")
			_, ok := handler.Identify(req)
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("Logout", func() {
		ginkgo.It("expires the cookie", func() {
			rec := httptest.NewRecorder()
			handler.Logout(rec, httptest.NewRequest(http.MethodGet, "/auth/logout", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(rec.Result().Cookies()[0].MaxAge).To(gomega.BeNumerically("<", 0))
		})
	})
})

var _ = ginkgo.Describe("RBACAuthorization", func() {
	ginkgo.It("maps anonymous to 401 and missing permission to 403", func() {
		rbac := NewRBACAuthorization(nil, newDiscardLogger())
		h := rbac.Require(PermBackup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(ContextWithUser(req.Context(), &User{ID: 1, Permissions: []string{PermFilesUpload}}))
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(ContextWithUser(req.Context(), &User{ID: 1, Permissions: []string{PermBackup}}))
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
	})
})
