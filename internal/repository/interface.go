package repository

import "github.com/fyerfyer/contract-filler/internal/models"

// RunFilter 执行记录的查询条件，零值表示不过滤
type RunFilter struct {
	Status         models.RunStatus
	ContractNumber string
}

// RunRepository 合同执行记录仓储接口
type RunRepository interface {
	// Create 创建执行记录
	Create(run *models.ContractRun) error

	// Update 更新执行记录的所有字段
	Update(run *models.ContractRun) error

	// GetByID 根据ID获取执行记录，不存在时返回 models.ErrRunNotFound
	GetByID(id string) (*models.ContractRun, error)

	// List 分页获取执行记录（按时间倒序），并返回符合条件的总数
	List(offset, limit int, filter RunFilter) ([]*models.ContractRun, int64, error)

	// Delete 删除执行记录
	Delete(id string) error
}
