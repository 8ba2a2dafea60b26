// Package main 数据库迁移工具
package main

import (
	"context"
	"flag"
	"log"

	"github.com/zhice-consulting/cms-backend/internal/config"
	"github.com/zhice-consulting/cms-backend/internal/database"
	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/repository"
	"github.com/zhice-consulting/cms-backend/internal/service"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	// 加载配置
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化数据库连接
	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()
	log.Println("数据库连接成功")

	// 执行迁移
	log.Println("开始执行数据库迁移...")

	// 迁移所有模型
	models := []any{
		&model.User{},
		&model.Role{},
		&model.UserPermission{},
		&model.Post{},
		&model.Category{},
		&model.Gallery{},
		&model.GalleryImage{},
		&model.Consultation{},
		&model.Activity{},
	}

	for _, m := range models {
		if err := database.AutoMigrate(m); err != nil {
			log.Fatalf("迁移失败: %v", err)
		}
	}

	// 初始化系统默认角色
	roleRepo := repository.NewRoleRepository(database.GetDB())
	permRepo := repository.NewUserPermissionRepository(database.GetDB())
	userRepo := repository.NewUserRepository(database.GetDB())
	permissionService := service.NewPermissionService(roleRepo, permRepo, userRepo, nil)
	if err := permissionService.EnsureDefaultRoles(context.Background()); err != nil {
		log.Fatalf("初始化默认角色失败: %v", err)
	}

	log.Println("数据库迁移完成！")

	// 打印创建的表
	log.Println("已创建/更新的表:")
	log.Println("  - users (用户表)")
	log.Println("  - roles (角色表)")
	log.Println("  - user_permissions (用户权限表)")
	log.Println("  - posts (文章表)")
	log.Println("  - categories (分类表)")
	log.Println("  - galleries (图库表)")
	log.Println("  - gallery_images (图库图片表)")
	log.Println("  - consultations (咨询线索表)")
	log.Println("  - activities (操作日志表)")
}
