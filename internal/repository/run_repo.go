package repository

import (
	"errors"
	"fmt"

	"github.com/fyerfyer/contract-filler/internal/database"
	"github.com/fyerfyer/contract-filler/internal/models"
	"gorm.io/gorm"
)

type runRepository struct {
	db *gorm.DB
}

// NewRunRepository 使用全局数据库连接创建仓储
func NewRunRepository() RunRepository {
	return &runRepository{db: database.MustDB()}
}

// NewRunRepositoryWithDB 使用指定的数据库连接创建仓储，db为nil时使用全局连接
func NewRunRepositoryWithDB(db *gorm.DB) RunRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &runRepository{db: db}
}

func (r *runRepository) Create(run *models.ContractRun) error {
	if run.ID == "" {
		return errors.New("run ID cannot be empty")
	}
	return r.db.Create(run).Error
}

func (r *runRepository) Update(run *models.ContractRun) error {
	if run.ID == "" {
		return errors.New("run ID cannot be empty")
	}
	return r.db.Save(run).Error
}

func (r *runRepository) GetByID(id string) (*models.ContractRun, error) {
	var run models.ContractRun
	err := r.db.Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrRunNotFound, id)
		}
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) List(offset, limit int, filter RunFilter) ([]*models.ContractRun, int64, error) {
	var runs []*models.ContractRun
	var total int64

	query := r.db.Model(&models.ContractRun{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.ContractNumber != "" {
		query = query.Where("contract_number = ?", filter.ContractNumber)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("started_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func (r *runRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.ContractRun{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrRunNotFound, id)
	}
	return nil
}
