package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/repository"
)

var (
	ErrUserNotFound      = errors.New("用户不存在")
	ErrUserIDEmpty       = errors.New("用户 ID 不能为空")
	ErrUsernameEmpty     = errors.New("用户名不能为空")
	ErrUsernameInvalid   = errors.New("用户名只能包含字母、数字和下划线")
	ErrUsernameTooShort  = errors.New("用户名长度不能少于 3 个字符")
	ErrEmailEmpty        = errors.New("邮箱不能为空")
	ErrEmailInvalid      = errors.New("邮箱格式无效")
	ErrPasswordEmpty     = errors.New("密码不能为空")
	ErrPasswordTooShort  = errors.New("密码长度不能少于 8 个字符")
	ErrUserSuspended     = errors.New("用户已被暂停")
	ErrUserInactive      = errors.New("用户已停用")
	ErrPasswordIncorrect = errors.New("密码错误")
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// UserService 用户服务接口
type UserService interface {
	Create(ctx context.Context, user *model.User, password string) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, actorID, id string) error
	List(ctx context.Context, filter *repository.UserFilter, page *repository.Pagination) ([]*model.User, int64, error)
	Authenticate(ctx context.Context, login, password string) (*model.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

type userService struct {
	userRepo repository.UserRepository
	permRepo repository.UserPermissionRepository
	recorder ActivityRecorder
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository, permRepo repository.UserPermissionRepository, recorder ActivityRecorder) UserService {
	return &userService{userRepo: userRepo, permRepo: permRepo, recorder: recorder}
}

func (s *userService) Create(ctx context.Context, user *model.User, password string) error {
	if err := s.validateUser(user); err != nil {
		return err
	}
	if err := s.validatePassword(password); err != nil {
		return err
	}
	if err := user.SetPassword(password); err != nil {
		return errors.New("密码加密失败")
	}
	if user.Status == "" {
		user.Status = model.StatusActive
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return err
	}
	if s.recorder != nil {
		s.recorder.Record(ctx, &model.Activity{
			Type:        model.ActivityUserCreated,
			Description: "创建用户 " + user.Username,
			EntityType:  "user",
			EntityID:    user.ID,
			CreatedBy:   user.CreatedBy,
		})
	}
	return nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrUserIDEmpty
	}
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if username == "" {
		return nil, ErrUsernameEmpty
	}
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *userService) Update(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		return ErrUserIDEmpty
	}
	return s.userRepo.Update(ctx, user)
}

func (s *userService) Delete(ctx context.Context, actorID, id string) error {
	if id == "" {
		return ErrUserIDEmpty
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	// 连带清理权限行，避免悬空记录
	_ = s.permRepo.DeleteByUserID(ctx, id)
	if s.recorder != nil {
		s.recorder.Record(ctx, &model.Activity{
			Type:        model.ActivityUserDeleted,
			Description: "删除用户 " + user.Username,
			EntityType:  "user",
			EntityID:    id,
			CreatedBy:   actorID,
		})
	}
	return nil
}

func (s *userService) List(ctx context.Context, filter *repository.UserFilter, page *repository.Pagination) ([]*model.User, int64, error) {
	if page == nil {
		page = &repository.Pagination{Page: 1, PageSize: 20}
	}
	return s.userRepo.List(ctx, filter, page)
}

// Authenticate 用户名或邮箱 + 密码登录
func (s *userService) Authenticate(ctx context.Context, login, password string) (*model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, login)
	if err != nil {
		user, err = s.userRepo.GetByEmail(ctx, login)
		if err != nil {
			return nil, ErrPasswordIncorrect
		}
	}
	switch user.Status {
	case model.StatusSuspended:
		return nil, ErrUserSuspended
	case model.StatusInactive:
		return nil, ErrUserInactive
	}
	if !user.VerifyPassword(password) {
		return nil, ErrPasswordIncorrect
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.VerifyPassword(oldPassword) {
		return ErrPasswordIncorrect
	}
	if err := s.validatePassword(newPassword); err != nil {
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("密码加密失败")
	}
	return s.userRepo.Update(ctx, user)
}

func (s *userService) validateUser(user *model.User) error {
	if user == nil {
		return errors.New("用户信息不能为空")
	}
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return ErrUsernameEmpty
	}
	if len(user.Username) < 3 {
		return ErrUsernameTooShort
	}
	if !usernameRegex.MatchString(user.Username) {
		return ErrUsernameInvalid
	}
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return ErrEmailEmpty
	}
	if !emailRegex.MatchString(user.Email) {
		return ErrEmailInvalid
	}
	return nil
}

func (s *userService) validatePassword(password string) error {
	if password == "" {
		return ErrPasswordEmpty
	}
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}
