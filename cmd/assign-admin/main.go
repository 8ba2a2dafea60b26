// 为现有用户分配管理员角色的工具
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/zhice-consulting/cms-backend/internal/config"
	"github.com/zhice-consulting/cms-backend/internal/database"
	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/repository"
	"github.com/zhice-consulting/cms-backend/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("用法: assign-admin <用户名或邮箱>")
		fmt.Println("示例: assign-admin admin@example.com")
		os.Exit(1)
	}

	login := os.Args[1]

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()

	ctx := context.Background()

	// 初始化 Repository 与 Service
	userRepo := repository.NewUserRepository(database.GetDB())
	roleRepo := repository.NewRoleRepository(database.GetDB())
	permRepo := repository.NewUserPermissionRepository(database.GetDB())
	permissionService := service.NewPermissionService(roleRepo, permRepo, userRepo, nil)

	// 确保默认角色已初始化
	if err := permissionService.EnsureDefaultRoles(ctx); err != nil {
		log.Printf("初始化默认角色失败: %v", err)
	}

	// 查找用户
	user, err := userRepo.GetByUsername(ctx, login)
	if err != nil {
		user, err = userRepo.GetByEmail(ctx, login)
		if err != nil {
			log.Fatalf("用户不存在: %s", login)
		}
	}

	// 查找管理员角色并分配
	adminRole, err := permissionService.GetRoleByName(ctx, model.RoleAdmin)
	if err != nil {
		log.Fatalf("管理员角色不存在: %v", err)
	}

	if _, err := permissionService.AssignRole(ctx, "", user.ID, adminRole.ID); err != nil {
		log.Fatalf("分配角色失败: %v", err)
	}

	fmt.Printf("成功为用户 %s (%s) 分配管理员角色\n", user.Username, user.Email)
}
