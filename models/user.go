package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// User representa um usuário do controle de parcelas
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;not null;size:100"`
	Email     string    `gorm:"column:email;unique;not null;size:100;index"`
	Password  string    `gorm:"column:password;not null;size:100"`
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate hook de validação antes da criação
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if len(u.Name) < 2 || len(u.Name) > 100 {
		return errors.New("o nome deve ter entre 2 e 100 caracteres")
	}
	if len(u.Email) < 3 || len(u.Email) > 100 {
		return errors.New("o email deve ter entre 3 e 100 caracteres")
	}
	return nil
}
