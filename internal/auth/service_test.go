package auth

import (
	"context"
	"errors"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/core/events"
)

var _ = ginkgo.Describe("AuthService", func() {
	var (
		ctx       context.Context
		service   *Service
		mockRepo  *mockUserRepository
		tokenGen  *JWTTokenGenerator
		publisher *recordingPublisher
	)

	ginkgo.BeforeEach(func() {
		ctx = internal.ContextWithClient(context.Background(), internal.Client{IP: "10.0.0.1", UserAgent: "test"})
		mockRepo = newMockUserRepository()
		tokenGen = NewJWTTokenGenerator("test-secret-test-secret-test-secret")
		publisher = &recordingPublisher{}
		service = NewService(mockRepo, tokenGen, publisher, ServiceConfig{
			BCryptCost:       bcrypt.MinCost,
			SessionDuration:  time.Hour,
			RememberDuration: 7 * 24 * time.Hour,
		})
	})

	ginkgo.Describe("Register", func() {
		ginkgo.It("creates an active user with the default role", func() {
			// Given
			dto := RegisterDTO{Username: "bob", Email: "bob@example.com", Password: "secret1"}

			// When
			user, err := service.Register(ctx, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(user.Username).To(gomega.Equal("bob"))
			gomega.Expect(user.Roles).To(gomega.ConsistOf(RoleUser))
			stored := mockRepo.users["bob"]
			gomega.Expect(VerifyPassword(stored.PasswordHash, "secret1")).To(gomega.Succeed())
		})

		ginkgo.It("rejects a taken username", func() {
			_, err := service.Register(ctx, RegisterDTO{Username: "alice", Email: "new@example.com", Password: "secret1"})
			gomega.Expect(err).To(gomega.MatchError(ErrUsernameTaken))
		})

		ginkgo.It("rejects a taken email", func() {
			_, err := service.Register(ctx, RegisterDTO{Username: "newbie", Email: "alice@example.com", Password: "secret1"})
			gomega.Expect(err).To(gomega.MatchError(ErrEmailTaken))
		})

		ginkgo.It("returns a validation error for short passwords", func() {
			_, err := service.Register(ctx, RegisterDTO{Username: "bob", Email: "bob@example.com", Password: "123"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(400))
		})
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.Context("when credentials are valid", func() {
			ginkgo.It("returns a session token for the user", func() {
				// When
				session, err := service.Authenticate(ctx, LoginDTO{Username: "alice", Password: "correct_password"})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(session.Token).ToNot(gomega.BeEmpty())
				gomega.Expect(session.User.ID).To(gomega.Equal(int64(1)))

				claims, err := service.ValidateToken(session.Token)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(claims.UserID).To(gomega.Equal(int64(1)))
				gomega.Expect(claims.Username).To(gomega.Equal("alice"))
			})

			ginkgo.It("records the login time and event", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Username: "alice", Password: "correct_password"})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(mockRepo.lastLogins).To(gomega.HaveKey(int64(1)))
				gomega.Expect(publisher.types()).To(gomega.ContainElement(events.EventTypeUserLogin))
			})

			ginkgo.It("extends the expiry when remember is set", func() {
				short, err := service.Authenticate(ctx, LoginDTO{Username: "alice", Password: "correct_password"})
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				long, err := service.Authenticate(ctx, LoginDTO{Username: "alice", Password: "correct_password", Remember: true})
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				gomega.Expect(long.ExpiresAt.Sub(short.ExpiresAt)).To(gomega.BeNumerically(">", 24*time.Hour))
			})
		})

		ginkgo.Context("when credentials are invalid", func() {
			ginkgo.It("rejects a wrong password and records the failure", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Username: "alice", Password: "nope"})

				gomega.Expect(err).To(gomega.MatchError(ErrInvalidCredentials))
				gomega.Expect(publisher.types()).To(gomega.ConsistOf(events.EventTypeUserLoginFailed))
			})

			ginkgo.It("rejects an unknown user", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Username: "ghost", Password: "correct_password"})
				gomega.Expect(err).To(gomega.MatchError(ErrInvalidCredentials))
			})

			ginkgo.It("rejects an inactive user", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Username: "dormant", Password: "correct_password"})
				gomega.Expect(err).To(gomega.MatchError(ErrUserInactive))
			})

			ginkgo.It("requires both fields", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Username: "alice"})
				var vErr ValidationError
				gomega.Expect(errors.As(err, &vErr)).To(gomega.BeTrue())
			})
		})

		ginkgo.It("propagates repository failures", func() {
			mockRepo.setError(errors.New("db down"))
			_, err := service.Authenticate(ctx, LoginDTO{Username: "alice", Password: "correct_password"})
			gomega.Expect(err).To(gomega.MatchError("db down"))
		})
	})

	ginkgo.Describe("GetUser", func() {
		ginkgo.It("loads roles and permissions", func() {
			user, err := service.GetUser(ctx, 2)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(user.IsAdmin()).To(gomega.BeTrue())
			gomega.Expect(user.HasPermission(PermViewLogs)).To(gomega.BeTrue())
		})

		ginkgo.It("refuses inactive users", func() {
			_, err := service.GetUser(ctx, 3)
			gomega.Expect(err).To(gomega.MatchError(ErrUserInactive))
		})
	})
})

var _ = ginkgo.Describe("JWTTokenGenerator", func() {
	ginkgo.It("rejects tokens signed with another secret", func() {
		other := NewJWTTokenGenerator("another-secret-another-secret-xx")
		token, _, err := other.GenerateToken(1, "alice", time.Hour)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		_, err = NewJWTTokenGenerator("test-secret-test-secret-test-secret").ValidateToken(token)
		gomega.Expect(err).To(gomega.MatchError(ErrInvalidToken))
	})

	ginkgo.It("reports expired tokens", func() {
		gen := NewJWTTokenGenerator("test-secret-test-secret-test-secret")
		token, _, err := gen.GenerateToken(1, "alice", time.Minute)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		gen.now = func() time.Time { return time.Now().Add(time.Hour) }
		_, err = gen.ValidateToken(token)
		gomega.Expect(err).To(gomega.MatchError(ErrTokenExpired))
	})

	ginkgo.It("rejects garbage", func() {
		_, err := NewJWTTokenGenerator("x").ValidateToken("not-a-token")
		gomega.Expect(err).To(gomega.MatchError(ErrInvalidToken))
	})
})
