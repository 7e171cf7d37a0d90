package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"time-planner/internal/model"
)

// AccountRepository handles CRUD for accounts.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Delete removes the account together with everything it owns.
func (r *AccountRepository) Delete(ctx context.Context, accountID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", accountID).Delete(&model.Task{}).Error; err != nil {
			return fmt.Errorf("delete account tasks: %w", err)
		}
		if err := tx.Where("account_id = ?", accountID).Delete(&model.TaskTemplate{}).Error; err != nil {
			return fmt.Errorf("delete account templates: %w", err)
		}
		if err := tx.Unscoped().Where("account_id = ?", accountID).Delete(&model.Category{}).Error; err != nil {
			return fmt.Errorf("delete account categories: %w", err)
		}
		res := tx.Where("id = ?", accountID).Delete(&model.Account{})
		if res.Error != nil {
			return fmt.Errorf("delete account: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *AccountRepository) FindByID(ctx context.Context, accountID uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) UpdateTokenHash(ctx context.Context, accountID uuid.UUID, tokenHash string) error {
	if err := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", accountID).
		Update("token_hash", tokenHash).Error; err != nil {
		return fmt.Errorf("update token: %w", err)
	}
	return nil
}

// LinkTelegram binds a chat to the account, detaching it from any other account first.
func (r *AccountRepository) LinkTelegram(ctx context.Context, accountID uuid.UUID, telegramID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Account{}).Where("telegram_id = ? AND id <> ?", telegramID, accountID).
			Update("telegram_id", nil).Error; err != nil {
			return fmt.Errorf("unlink telegram: %w", err)
		}
		if err := tx.Model(&model.Account{}).Where("id = ?", accountID).
			Update("telegram_id", telegramID).Error; err != nil {
			return fmt.Errorf("link telegram: %w", err)
		}
		return nil
	})
}

// ListLinked returns accounts with a Telegram chat attached.
func (r *AccountRepository) ListLinked(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := r.db.WithContext(ctx).Where("telegram_id IS NOT NULL").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
