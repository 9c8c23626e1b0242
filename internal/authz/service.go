package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix        = "/api/v1"
	casbinTableName    = "casbin_rule"
	operatorSubjectFmt = "operator:%d"
	rolePrefix         = "role:"
)

var (
	// ErrUnavailable 授权服务未初始化
	ErrUnavailable = errors.New("authz service unavailable")
	// ErrUnknownRole 角色不在预置集合内
	ErrUnknownRole = errors.New("unknown role")
)

// 主体可直接匹配策略，也可经由 g 继承角色策略；资源支持 :id 与 * 通配
const operatorRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy 权限策略
type Policy struct {
	Object string `json:"object"`
	Action string `json:"action"`
}

// Service 操作员授权服务（厨房/店长），策略持久化在 casbin_rule 表
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(operatorRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

// EnforceOperator 判定操作员能否以 method 访问路由
func (s *Service) EnforceOperator(operatorID uint, route, method string) (bool, error) {
	if s == nil || s.enforcer == nil {
		return false, ErrUnavailable
	}
	return s.enforcer.Enforce(SubjectForOperator(operatorID), NormalizeObject(route), NormalizeAction(method))
}

// SetOperatorRoles 覆盖设置操作员角色，只接受预置角色
func (s *Service) SetOperatorRoles(operatorID uint, roles []string) error {
	if operatorID == 0 {
		return fmt.Errorf("operator id is required")
	}
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	subjects := make([]string, 0, len(roles))
	for _, role := range roles {
		subject, err := roleSubject(role)
		if err != nil {
			return err
		}
		subjects = append(subjects, subject)
	}

	operator := SubjectForOperator(operatorID)
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, operator); err != nil {
		return fmt.Errorf("clear operator roles failed: %w", err)
	}
	for _, subject := range subjects {
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", operator, subject); err != nil {
			return fmt.Errorf("assign operator role failed: %w", err)
		}
	}
	return nil
}

// OperatorRoles 操作员直接分配的角色名（不含继承），按字母序
func (s *Service) OperatorRoles(operatorID uint) ([]string, error) {
	if s == nil || s.enforcer == nil {
		return nil, ErrUnavailable
	}
	subjects, err := s.enforcer.GetRolesForUser(SubjectForOperator(operatorID))
	if err != nil {
		return nil, fmt.Errorf("get operator roles failed: %w", err)
	}
	roles := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		if name, ok := strings.CutPrefix(subject, rolePrefix); ok {
			roles = append(roles, name)
		}
	}
	sort.Strings(roles)
	return roles, nil
}

// SubjectForOperator 生成操作员主体标识
func SubjectForOperator(operatorID uint) string {
	return fmt.Sprintf(operatorSubjectFmt, operatorID)
}

func roleSubject(role string) (string, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(role), rolePrefix))
	if _, ok := builtinRole(name); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return rolePrefix + name, nil
}

// NormalizeObject 统一授权资源路径（去掉 /api/v1 前缀）
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if normalized == "" {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if normalized == apiV1Prefix {
		return "/"
	}
	if rest, ok := strings.CutPrefix(normalized, apiV1Prefix+"/"); ok {
		return "/" + rest
	}
	return normalized
}

// NormalizeAction 统一授权动作
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
