package auth

const (
	PermFilesUpload       = "files.upload"
	PermFilesDownload     = "files.download"
	PermFilesDelete       = "files.delete"
	PermFilesViewAll      = "files.view_all"
	PermManageUsers       = "admin.manage_users"
	PermManagePermissions = "admin.manage_permissions"
	PermViewLogs          = "admin.view_logs"
	PermBackup            = "admin.backup"
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleUser   = "user"
	RoleViewer = "viewer"

	DefaultRole = RoleUser
)

type PermissionDef struct {
	Name        string
	Description string
}

type RoleDef struct {
	Name        string
	Description string
	Permissions []string
}

// Permissions is the full permission catalog.
var Permissions = []PermissionDef{
	{PermFilesUpload, "Upload files"},
	{PermFilesDownload, "Download files"},
	{PermFilesDelete, "Delete files"},
	{PermFilesViewAll, "View all files"},
	{PermManageUsers, "Manage users"},
	{PermManagePermissions, "Manage permissions"},
	{PermViewLogs, "View access logs"},
	{PermBackup, "Run and manage backups"},
}

var Roles = []RoleDef{
	{
		Name:        RoleAdmin,
		Description: "System administrator",
		Permissions: []string{
			PermFilesUpload, PermFilesDownload, PermFilesDelete, PermFilesViewAll,
			PermManageUsers, PermManagePermissions, PermViewLogs, PermBackup,
		},
	},
	{
		Name:        RoleEditor,
		Description: "Editor",
		Permissions: []string{PermFilesUpload, PermFilesDownload, PermFilesViewAll},
	},
	{
		Name:        RoleUser,
		Description: "Regular user",
		Permissions: []string{PermFilesUpload, PermFilesDownload},
	},
	{
		Name:        RoleViewer,
		Description: "Read-only viewer",
		Permissions: []string{PermFilesDownload},
	},
}

type PermissionChecker interface {
	HasPermission(userPermissions []string, permission string) bool
	HasAnyPermission(userPermissions []string, requiredPermissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(userPermissions []string, permission string) bool {
	return c.HasAnyPermission(userPermissions, []string{permission})
}

func (c *DefaultPermissionChecker) HasAnyPermission(userPermissions []string, requiredPermissions []string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range requiredPermissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}
