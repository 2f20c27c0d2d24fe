package model

// Department 部门表 — 对应 departments（目录服务维护，只读）
type Department struct {
	DepartmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"department_id"`
	Code         string `gorm:"type:varchar(20);not null"                      json:"code"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }

// Role 角色表 — 对应 roles（EMPLOYEE / MANAGER / HR_ADMIN 等）
type Role struct {
	RoleID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"role_id"`
	Name        string `gorm:"type:varchar(50);not null"                      json:"name"`
	Description string `gorm:"type:text"                                      json:"description,omitempty"`
	IsActive    bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Role) TableName() string { return "roles" }
