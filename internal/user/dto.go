package user

import (
	"github.com/frahmantamala/filehub/internal/file"
	"github.com/frahmantamala/filehub/internal/transport"
)

type UserListResponseV1 struct {
	Users      []*User              `json:"users"`
	Pagination transport.Pagination `json:"pagination"`
	Search     string               `json:"search,omitempty"`
}

type UserDetailResponseV1 struct {
	User  *User                  `json:"user"`
	Files []*file.FileResponseV1 `json:"files"`
}

type UpdateRolesRequestV1 struct {
	Roles []string `json:"roles"`
}

// UpdateStatusRequestV1 treats a missing is_active as true.
type UpdateStatusRequestV1 struct {
	IsActive *bool `json:"is_active"`
}

func (d *Detail) ToV1() UserDetailResponseV1 {
	files := make([]*file.FileResponseV1, 0, len(d.Files))
	for _, f := range d.Files {
		files = append(files, f.ToV1())
	}
	return UserDetailResponseV1{User: d.User, Files: files}
}
