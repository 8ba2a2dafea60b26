package service

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zhice-consulting/cms-backend/internal/model"
)

// permissionMapGen 生成随机角色权限表。
// 每个模块一个编码：0 表示权限表中不含该模块，
// 1..8 的低三位分别对应 read/write/delete。
func permissionMapGen() gopter.Gen {
	modules := model.AllModules()
	return gen.SliceOfN(len(modules), gen.IntRange(0, 8)).Map(func(codes []int) model.PermissionMap {
		perms := model.PermissionMap{}
		for i, code := range codes {
			if code == 0 {
				continue
			}
			bits := code - 1
			perms[modules[i]] = model.PermissionGrant{
				Read:   bits&1 != 0,
				Write:  bits&2 != 0,
				Delete: bits&4 != 0,
			}
		}
		return perms
	})
}

// 角色重新分配后，用户权限行必须与新角色的权限表完全一致：
// 旧角色的授权和单独调整过的授权都不得残留。
func TestProperty_AssignRoleResetsToRoleDefaults(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("重新分配角色后权限行等于角色默认值", prop.ForAll(
		func(oldPerms, newPerms model.PermissionMap) bool {
			ctx := context.Background()
			env := newPermTestEnv()

			oldRole := env.addRole(t, "old_role", false, oldPerms)
			newRole := env.addRole(t, "new_role", false, newPerms)
			user := env.addUser(t, "propuser", oldRole.ID)

			if _, err := env.svc.AssignRole(ctx, "actor", user.ID, oldRole.ID); err != nil {
				t.Logf("首次分配失败: %v", err)
				return false
			}
			if _, err := env.svc.AssignRole(ctx, "actor", user.ID, newRole.ID); err != nil {
				t.Logf("重新分配失败: %v", err)
				return false
			}

			rows, err := env.permRepo.ListByUserID(ctx, user.ID)
			if err != nil {
				return false
			}
			if len(rows) != len(newPerms) {
				t.Logf("权限行数量 %d != 角色模块数 %d", len(rows), len(newPerms))
				return false
			}
			for _, row := range rows {
				grant, ok := newPerms[row.Module]
				if !ok {
					t.Logf("残留了角色未声明的模块 %s", row.Module)
					return false
				}
				if !row.Enabled || row.CanRead != grant.Read || row.CanWrite != grant.Write || row.CanDelete != grant.Delete {
					t.Logf("模块 %s 的权限行与角色默认值不一致", row.Module)
					return false
				}
			}
			return true
		},
		permissionMapGen(),
		permissionMapGen(),
	))

	properties.TestingRun(t)
}

// 角色编辑级联：新权限表提及的模块覆盖持有者的对应行，
// 未提及的模块保持持有者原有授权不变。
func TestProperty_RoleEditMergesPerModule(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("角色编辑按模块合并", prop.ForAll(
		func(initial, updated model.PermissionMap) bool {
			ctx := context.Background()
			env := newPermTestEnv()

			role := env.addRole(t, "merge_role", false, initial)
			user := env.addUser(t, "propuser", role.ID)

			if _, err := env.svc.AssignRole(ctx, "actor", user.ID, role.ID); err != nil {
				return false
			}
			before, err := env.permRepo.ListByUserID(ctx, user.ID)
			if err != nil {
				return false
			}
			beforeByModule := make(map[string]*model.UserPermission, len(before))
			for _, row := range before {
				beforeByModule[row.Module] = row
			}

			role.Permissions = updated
			if err := env.svc.UpdateRole(ctx, "actor", role); err != nil {
				t.Logf("角色更新失败: %v", err)
				return false
			}

			after, err := env.permRepo.ListByUserID(ctx, user.ID)
			if err != nil {
				return false
			}
			afterByModule := make(map[string]*model.UserPermission, len(after))
			for _, row := range after {
				afterByModule[row.Module] = row
			}

			// 提及的模块被覆盖
			for module, grant := range updated {
				row, ok := afterByModule[module]
				if !ok {
					t.Logf("提及的模块 %s 没有权限行", module)
					return false
				}
				if !row.Enabled || row.CanRead != grant.Read || row.CanWrite != grant.Write || row.CanDelete != grant.Delete {
					t.Logf("模块 %s 未被覆盖为新授权", module)
					return false
				}
			}
			// 未提及的模块保持原值
			for module, row := range beforeByModule {
				if _, mentioned := updated[module]; mentioned {
					continue
				}
				kept, ok := afterByModule[module]
				if !ok {
					t.Logf("未提及的模块 %s 被删除了", module)
					return false
				}
				if kept.CanRead != row.CanRead || kept.CanWrite != row.CanWrite || kept.CanDelete != row.CanDelete {
					t.Logf("未提及的模块 %s 被改写了", module)
					return false
				}
			}
			return true
		},
		permissionMapGen(),
		permissionMapGen(),
	))

	properties.TestingRun(t)
}

// 权限判定与权限行一一对应：普通用户的 Authorize 结果
// 必须等于该模块权限行的对应布尔位。
func TestProperty_AuthorizeMatchesStoredRows(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("权限判定等于权限行布尔位", prop.ForAll(
		func(perms model.PermissionMap) bool {
			ctx := context.Background()
			env := newPermTestEnv()

			role := env.addRole(t, "check_role", false, perms)
			user := env.addUser(t, "propuser", role.ID)
			if _, err := env.svc.AssignRole(ctx, "actor", user.ID, role.ID); err != nil {
				return false
			}

			for _, module := range model.AllModules() {
				grant, present := perms[module]
				expect := map[string]bool{
					model.ActionRead:   present && grant.Read,
					model.ActionWrite:  present && grant.Write,
					model.ActionDelete: present && grant.Delete,
				}
				for action, want := range expect {
					got, err := env.svc.Authorize(ctx, user.ID, module, action)
					if err != nil {
						t.Logf("权限判定出错: %v", err)
						return false
					}
					if got != want {
						t.Logf("模块 %s 操作 %s 期望 %v 实际 %v", module, action, want, got)
						return false
					}
				}
			}
			return true
		},
		permissionMapGen(),
	))

	properties.TestingRun(t)
}
