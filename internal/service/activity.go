package service

import (
	"context"

	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/repository"
	"go.uber.org/zap"
)

// ActivityService 操作日志服务接口
// Record 尽力而为：写入失败只记日志，绝不向调用方传播，
// 避免审计问题拖垮主操作。
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, filter *repository.ActivityFilter, page *repository.Pagination) ([]*model.Activity, int64, error)
}

type activityService struct {
	activityRepo repository.ActivityRepository
	logger       *zap.Logger
}

// NewActivityService 创建操作日志服务
func NewActivityService(activityRepo repository.ActivityRepository, logger *zap.Logger) ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &activityService{activityRepo: activityRepo, logger: logger}
}

// Record 追加一条操作日志
func (s *activityService) Record(ctx context.Context, activity *model.Activity) {
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.logger.Warn("写入操作日志失败",
			zap.String("type", activity.Type),
			zap.String("entity_type", activity.EntityType),
			zap.String("entity_id", activity.EntityID),
			zap.Error(err),
		)
	}
}

// List 查询操作日志
func (s *activityService) List(ctx context.Context, filter *repository.ActivityFilter, page *repository.Pagination) ([]*model.Activity, int64, error) {
	if page == nil {
		page = &repository.Pagination{Page: 1, PageSize: 20}
	}
	return s.activityRepo.List(ctx, filter, page)
}
