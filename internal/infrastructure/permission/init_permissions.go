package permission

import (
	"fmt"

	"github.com/casbin/casbin/v2"

	"github.com/orris-inc/autopay/internal/domain/permission"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

// InitOwnerPermissions seeds the owner-only administrative policies. Adding
// a policy that already exists is a no-op.
func InitOwnerPermissions(enforcer *casbin.Enforcer, log logger.Interface) error {
	policies := [][]string{
		{permission.RoleOwner, permission.ResourceCodehash, permission.ActionApprove},
		{permission.RoleOwner, permission.ResourceMerchant, permission.ActionRegister},
	}

	for _, policy := range policies {
		_, err := enforcer.AddPolicy(policy)
		if err != nil {
			log.Errorw("failed to add owner permission policy",
				"error", err,
				"role", policy[0],
				"resource", policy[1],
				"action", policy[2])
			return fmt.Errorf("failed to add policy [%s, %s, %s]: %w",
				policy[0], policy[1], policy[2], err)
		}
	}

	log.Debugw("owner permissions initialized")
	return nil
}
