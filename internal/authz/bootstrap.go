package authz

import (
	"fmt"

	"github.com/manda2/internal/constants"
	"github.com/manda2/internal/logger"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 预置角色：厨房推进履约，店长额外查看报表并可吊销令牌
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.RoleKitchen,
			Policies: []Policy{
				{Object: "/admin/monitor/orders", Action: "GET"},
				{Object: "/admin/monitor/stream", Action: "GET"},
				{Object: "/admin/sales/:id/fulfillment-status", Action: "PATCH"},
			},
		},
		{
			Role:     constants.RoleManager,
			Inherits: []string{constants.RoleKitchen},
			Policies: []Policy{
				{Object: "/admin/reports/*", Action: "GET"},
				{Object: "/admin/operators/:username/revoke", Action: "POST"},
			},
		},
	}
}

func builtinRole(name string) (RoleSeed, bool) {
	for _, seed := range BuiltinRoleSeeds() {
		if seed.Role == name {
			return seed, true
		}
	}
	return RoleSeed{}, false
}

// SyncBuiltinRoles 将预置角色的继承与策略同步到库：补齐缺失项，移除代码中已不存在的旧策略。可重复执行。
func (s *Service) SyncBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	for _, seed := range BuiltinRoleSeeds() {
		role := rolePrefix + seed.Role

		for _, parent := range seed.Inherits {
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, rolePrefix+parent); err != nil {
				return fmt.Errorf("link role %s to %s failed: %w", seed.Role, parent, err)
			}
		}

		want := make(map[[2]string]struct{}, len(seed.Policies))
		for _, policy := range seed.Policies {
			object, action := NormalizeObject(policy.Object), NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			want[[2]string{object, action}] = struct{}{}
			if _, err := s.enforcer.AddPolicy(role, object, action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}

		existing, err := s.enforcer.GetFilteredPolicy(0, role)
		if err != nil {
			return fmt.Errorf("list role policies failed: %w", err)
		}
		for _, rule := range existing {
			if len(rule) < 3 {
				continue
			}
			if _, ok := want[[2]string{rule[1], rule[2]}]; ok {
				continue
			}
			if _, err := s.enforcer.RemovePolicy(rule[0], rule[1], rule[2]); err != nil {
				return fmt.Errorf("remove stale policy failed: %w", err)
			}
			logger.Infow("authz_stale_policy_removed", "role", seed.Role, "object", rule[1], "action", rule[2])
		}
	}
	return nil
}
