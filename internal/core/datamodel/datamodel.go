// Package datamodel lists the gorm rows persisted by the service.
package datamodel

import (
	"github.com/frahmantamala/filehub/internal/core/datamodel/accesslog"
	"github.com/frahmantamala/filehub/internal/core/datamodel/file"
	"github.com/frahmantamala/filehub/internal/core/datamodel/user"
)

// Models returns every row type in dependency order, for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&user.Permission{},
		&user.Role{},
		&user.User{},
		&file.File{},
		&file.FilePermission{},
		&accesslog.AccessLog{},
	}
}
