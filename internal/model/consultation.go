package model

// 咨询线索状态常量
const (
	ConsultationStatusNew       = "new"       // 新提交
	ConsultationStatusContacted = "contacted" // 已联系
	ConsultationStatusClosed    = "closed"    // 已关闭
)

// Consultation 咨询线索模型（官网咨询表单提交）
type Consultation struct {
	BaseModel
	Name    string `gorm:"type:varchar(100);not null" json:"name"`
	Email   string `gorm:"type:varchar(255);not null" json:"email"`
	Phone   string `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Company string `gorm:"type:varchar(200)" json:"company,omitempty"`
	Message string `gorm:"type:text" json:"message"`
	Status  string `gorm:"type:varchar(20);default:new" json:"status"`
}

// TableName 指定表名
func (Consultation) TableName() string {
	return "consultations"
}
