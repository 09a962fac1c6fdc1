package user

import (
	"context"
	"errors"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/filehub/internal/auth"
	"github.com/frahmantamala/filehub/internal/file"
	"github.com/frahmantamala/filehub/internal/transport"
)

var _ = ginkgo.Describe("User Service", func() {
	var (
		ctx   context.Context
		repo  *mockUserRepository
		svc   *Service
		actor *auth.User
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = newMockUserRepository()
		lister := &stubFileLister{files: map[int64][]*file.File{1: {{ID: 10, OriginalFilename: "a.txt", UploadedBy: 1}}}}
		svc = NewService(repo, lister)
		actor = &auth.User{ID: 3, Username: "root", Roles: []string{auth.RoleAdmin}}
	})

	ginkgo.It("searches username and email", func() {
		users, total, err := svc.List(ctx, " corp ", transport.Page{Page: 1, PerPage: UsersPerPage})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(total).To(gomega.Equal(int64(1)))
		gomega.Expect(users[0].Username).To(gomega.Equal("bob"))
	})

	ginkgo.It("includes the user's uploads in the detail view", func() {
		d, err := svc.Detail(ctx, 1)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(d.User.Roles).To(gomega.Equal([]string{"user"}))
		gomega.Expect(d.Files).To(gomega.HaveLen(1))
	})

	ginkgo.It("reports unknown users", func() {
		_, err := svc.Detail(ctx, 99)
		gomega.Expect(errors.Is(err, ErrNotFound)).To(gomega.BeTrue())
	})

	ginkgo.It("replaces roles and ignores unknown names", func() {
		// When
		u, err := svc.ReplaceRoles(ctx, actor, 1, []string{"editor", "wizard", "editor", " "})

		// Then
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(u.Roles).To(gomega.Equal([]string{"editor"}))
		gomega.Expect(u.Permissions).To(gomega.ConsistOf("files.view_all"))
	})

	ginkgo.It("clears roles with an empty list", func() {
		u, err := svc.ReplaceRoles(ctx, actor, 1, []string{})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(u.Roles).To(gomega.BeEmpty())
	})

	ginkgo.It("toggles the active flag", func() {
		u, err := svc.SetActive(ctx, actor, 2, false)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(u.IsActive).To(gomega.BeFalse())
	})

	ginkgo.It("refuses to deactivate the acting administrator", func() {
		_, err := svc.SetActive(ctx, actor, 3, false)
		gomega.Expect(errors.Is(err, ErrSelfDeactivate)).To(gomega.BeTrue())
		gomega.Expect(repo.users[3].IsActive).To(gomega.BeTrue())
	})
})
