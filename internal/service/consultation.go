package service

import (
	"context"
	"errors"
	"strings"

	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/repository"
)

var (
	ErrConsultationNotFound    = errors.New("咨询线索不存在")
	ErrConsultationNameEmpty   = errors.New("姓名不能为空")
	ErrConsultationEmailEmpty  = errors.New("邮箱不能为空")
	ErrConsultationBadStatus   = errors.New("无效的线索状态")
	ErrConsultationEmailFormat = errors.New("邮箱格式无效")
)

// ConsultationService 咨询线索服务接口
// Submit 来自官网公开表单，其余操作属于后台管理。
type ConsultationService interface {
	Submit(ctx context.Context, consultation *model.Consultation) error
	Get(ctx context.Context, id string) (*model.Consultation, error)
	UpdateStatus(ctx context.Context, actorID, id, status string) error
	Delete(ctx context.Context, actorID, id string) error
	List(ctx context.Context, filter *repository.ConsultationFilter, page *repository.Pagination) ([]*model.Consultation, int64, error)
}

type consultationService struct {
	consultationRepo repository.ConsultationRepository
	recorder         ActivityRecorder
}

// NewConsultationService 创建咨询线索服务
func NewConsultationService(consultationRepo repository.ConsultationRepository, recorder ActivityRecorder) ConsultationService {
	return &consultationService{consultationRepo: consultationRepo, recorder: recorder}
}

func (s *consultationService) Submit(ctx context.Context, consultation *model.Consultation) error {
	consultation.Name = strings.TrimSpace(consultation.Name)
	consultation.Email = strings.TrimSpace(consultation.Email)
	if consultation.Name == "" {
		return ErrConsultationNameEmpty
	}
	if consultation.Email == "" {
		return ErrConsultationEmailEmpty
	}
	if !emailRegex.MatchString(consultation.Email) {
		return ErrConsultationEmailFormat
	}
	consultation.Status = model.ConsultationStatusNew
	if err := s.consultationRepo.Create(ctx, consultation); err != nil {
		return err
	}
	// 公开表单没有登录用户，操作者留空
	s.record(ctx, model.ActivityLeadSubmitted, "官网提交咨询: "+consultation.Name, consultation.ID, "")
	return nil
}

func (s *consultationService) Get(ctx context.Context, id string) (*model.Consultation, error) {
	consultation, err := s.consultationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrConsultationNotFound
	}
	return consultation, nil
}

func (s *consultationService) UpdateStatus(ctx context.Context, actorID, id, status string) error {
	switch status {
	case model.ConsultationStatusNew, model.ConsultationStatusContacted, model.ConsultationStatusClosed:
	default:
		return ErrConsultationBadStatus
	}
	consultation, err := s.consultationRepo.GetByID(ctx, id)
	if err != nil {
		return ErrConsultationNotFound
	}
	consultation.Status = status
	if err := s.consultationRepo.Update(ctx, consultation); err != nil {
		return err
	}
	s.record(ctx, model.ActivityLeadUpdated, "咨询线索 "+consultation.Name+" 状态变更为 "+status, id, actorID)
	return nil
}

func (s *consultationService) Delete(ctx context.Context, actorID, id string) error {
	if err := s.consultationRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConsultationNotFound) {
			return ErrConsultationNotFound
		}
		return err
	}
	s.record(ctx, model.ActivityLeadDeleted, "删除咨询线索", id, actorID)
	return nil
}

func (s *consultationService) List(ctx context.Context, filter *repository.ConsultationFilter, page *repository.Pagination) ([]*model.Consultation, int64, error) {
	if page == nil {
		page = &repository.Pagination{Page: 1, PageSize: 20}
	}
	return s.consultationRepo.List(ctx, filter, page)
}

func (s *consultationService) record(ctx context.Context, activityType, description, entityID, actorID string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, &model.Activity{
		Type:        activityType,
		Description: description,
		EntityType:  "consultation",
		EntityID:    entityID,
		CreatedBy:   actorID,
	})
}
