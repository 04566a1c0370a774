// Package permission describes who may perform administrative actions.
package permission

// Role granted to the configured owner principal.
const RoleOwner = "owner"

// Resources guarded by owner-only actions.
const (
	ResourceCodehash = "codehash"
	ResourceMerchant = "merchant"
)

// Actions on guarded resources.
const (
	ActionApprove  = "approve"
	ActionRegister = "register"
)

type PermissionEnforcer interface {
	Enforce(principal string, resource string, action string) (bool, error)
	AddRoleForUser(principal string, role string) error
	DeleteRoleForUser(principal string, role string) error
	GetRolesForUser(principal string) ([]string, error)
	GetUsersForRole(role string) ([]string, error)
}
