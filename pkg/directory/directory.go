package directory

import (
	"context"
	"errors"

	"github.com/example/shopcore/pkg/models"
	"gorm.io/gorm"
)

// Directory answers the two questions the order core has about users:
// does this user exist, and what is their email for display.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) UserExists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *Directory) UserEmail(ctx context.Context, id string) (string, error) {
	var user models.User
	if err := d.db.WithContext(ctx).Select("email").Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return user.Email, nil
}
