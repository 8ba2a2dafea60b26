package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/repository"
)

type userTestEnv struct {
	userRepo *fakeUserRepo
	permRepo *fakePermRepo
	recorder *fakeRecorder
	svc      UserService
}

func newUserTestEnv() *userTestEnv {
	env := &userTestEnv{
		userRepo: newFakeUserRepo(),
		permRepo: newFakePermRepo(),
		recorder: &fakeRecorder{},
	}
	env.svc = NewUserService(env.userRepo, env.permRepo, env.recorder)
	return env
}

func (env *userTestEnv) createUser(t *testing.T, username, email, password string) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Email:    email,
	}
	require.NoError(t, env.svc.Create(context.Background(), user, password))
	return user
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()
	env := newUserTestEnv()

	user := &model.User{
		Username: "zhangsan",
		Email:    "zhangsan@example.com",
	}
	err := env.svc.Create(ctx, user, "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, model.StatusActive, user.Status)
	// 密码不以明文存储
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.True(t, user.VerifyPassword("password123"))
	// 记录审计
	require.Len(t, env.recorder.activities, 1)
	assert.Equal(t, model.ActivityUserCreated, env.recorder.activities[0].Type)
}

func TestUserService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	env := newUserTestEnv()

	tests := []struct {
		name     string
		user     *model.User
		password string
		wantErr  error
	}{
		{"用户名为空", &model.User{Email: "a@example.com"}, "password123", ErrUsernameEmpty},
		{"用户名太短", &model.User{Username: "ab", Email: "a@example.com"}, "password123", ErrUsernameTooShort},
		{"用户名含非法字符", &model.User{Username: "bad name", Email: "a@example.com"}, "password123", ErrUsernameInvalid},
		{"邮箱为空", &model.User{Username: "zhangsan"}, "password123", ErrEmailEmpty},
		{"邮箱格式无效", &model.User{Username: "zhangsan", Email: "not-an-email"}, "password123", ErrEmailInvalid},
		{"密码为空", &model.User{Username: "zhangsan", Email: "a@example.com"}, "", ErrPasswordEmpty},
		{"密码太短", &model.User{Username: "zhangsan", Email: "a@example.com"}, "short", ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.svc.Create(ctx, tt.user, tt.password)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestUserService_Create_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	env := newUserTestEnv()
	env.createUser(t, "zhangsan", "zhangsan@example.com", "password123")

	err := env.svc.Create(ctx, &model.User{
		Username: "zhangsan",
		Email:    "other@example.com",
	}, "password123")
	assert.Equal(t, repository.ErrUserUsernameExists, err)
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()
	env := newUserTestEnv()
	env.createUser(t, "zhangsan", "zhangsan@example.com", "password123")

	// 用户名登录
	user, err := env.svc.Authenticate(ctx, "zhangsan", "password123")
	require.NoError(t, err)
	assert.Equal(t, "zhangsan", user.Username)

	// 邮箱登录
	user, err = env.svc.Authenticate(ctx, "zhangsan@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "zhangsan", user.Username)
}

func TestUserService_Authenticate_WrongPassword(t *testing.T) {
	ctx := context.Background()
	env := newUserTestEnv()
	env.createUser(t, "zhangsan", "zhangsan@example.com", "password123")

	_, err := env.svc.Authenticate(ctx, "zhangsan", "wrongpassword")
	assert.Equal(t, ErrPasswordIncorrect, err)
}

func TestUserService_Authenticate_UnknownLogin(t *testing.T) {
	ctx := context.Background()
	env := newUserTestEnv()

	// 不存在的用户与密码错误返回同一个错误，避免枚举账号
	_, err := env.svc.Authenticate(ctx, "nobody", "password123")
	assert.Equal(t, ErrPasswordIncorrect, err)
}

func TestUserService_Authenticate_Suspended(t *testing.T) {
	ctx := context.Background()
	env := newUserTestEnv()
	user := env.createUser(t, "zhangsan", "zhangsan@example.com", "password123")

	user.Status = model.StatusSuspended
	require.NoError(t, env.userRepo.Update(ctx, user))

	_, err := env.svc.Authenticate(ctx, "zhangsan", "password123")
	assert.Equal(t, ErrUserSuspended, err)
}

func TestUserService_Authenticate_Inactive(t *testing.T) {
	ctx := context.Background()
	env := newUserTestEnv()
	user := env.createUser(t, "zhangsan", "zhangsan@example.com", "password123")

	user.Status = model.StatusInactive
	require.NoError(t, env.userRepo.Update(ctx, user))

	_, err := env.svc.Authenticate(ctx, "zhangsan", "password123")
	assert.Equal(t, ErrUserInactive, err)
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	env := newUserTestEnv()
	user := env.createUser(t, "zhangsan", "zhangsan@example.com", "password123")

	err := env.svc.ChangePassword(ctx, user.ID, "password123", "newpassword456")
	require.NoError(t, err)

	// 旧密码失效，新密码生效
	_, err = env.svc.Authenticate(ctx, "zhangsan", "password123")
	assert.Equal(t, ErrPasswordIncorrect, err)
	_, err = env.svc.Authenticate(ctx, "zhangsan", "newpassword456")
	assert.NoError(t, err)
}

func TestUserService_ChangePassword_WrongOldPassword(t *testing.T) {
	ctx := context.Background()
	env := newUserTestEnv()
	user := env.createUser(t, "zhangsan", "zhangsan@example.com", "password123")

	err := env.svc.ChangePassword(ctx, user.ID, "wrongpassword", "newpassword456")
	assert.Equal(t, ErrPasswordIncorrect, err)
}

func TestUserService_ChangePassword_TooShort(t *testing.T) {
	ctx := context.Background()
	env := newUserTestEnv()
	user := env.createUser(t, "zhangsan", "zhangsan@example.com", "password123")

	err := env.svc.ChangePassword(ctx, user.ID, "password123", "short")
	assert.Equal(t, ErrPasswordTooShort, err)
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	env := newUserTestEnv()
	user := env.createUser(t, "zhangsan", "zhangsan@example.com", "password123")

	// 给用户写一条权限行，删除用户后应被清理
	require.NoError(t, env.permRepo.ReplaceForUser(ctx, user.ID, []*model.UserPermission{
		{Module: model.ModulePosts, Enabled: true, CanRead: true},
	}))

	err := env.svc.Delete(ctx, "actor-1", user.ID)
	require.NoError(t, err)

	_, err = env.userRepo.GetByID(ctx, user.ID)
	assert.Equal(t, repository.ErrUserNotFound, err)

	rows, err := env.permRepo.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	// 创建 + 删除共两条审计记录
	require.Len(t, env.recorder.activities, 2)
	assert.Equal(t, model.ActivityUserDeleted, env.recorder.activities[1].Type)
}

func TestUserService_Delete_NotFound(t *testing.T) {
	ctx := context.Background()
	env := newUserTestEnv()

	err := env.svc.Delete(ctx, "actor-1", "nonexistent")
	assert.Equal(t, repository.ErrUserNotFound, err)
}
