package model

// Roles.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User is an account owning events, corresponds to users.
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'member'"     json:"role"` // member | admin
	BaseModel
}

// TableName sets the table name.
func (User) TableName() string { return "users" }
