package pool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"money-idea-miner/internal/common"
	"money-idea-miner/internal/domain"
	"money-idea-miner/internal/port"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresPool 实现了 port.AssetPool 接口
// 灵感主表 + 状态变更审计表 + 收益流水表，灵感只做状态迁移、从不删除
type PostgresPool struct {
	db      *gorm.DB
	nowFunc func() time.Time // 便于测试注入当前时间
	idFunc  func() string    // 审计/流水行 ID 生成，便于测试注入
}

// NewPostgresPool 初始化数据库连接并自动迁移表结构
func NewPostgresPool(dsn string) (*PostgresPool, error) {
	// TranslateError 把驱动层的唯一键冲突翻译成 gorm.ErrDuplicatedKey，
	// 并发插入竞争时靠它兜底防重
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	if err := db.AutoMigrate(&domain.Idea{}, &domain.StatusChange{}, &domain.RevenueRecord{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return &PostgresPool{
		db:      db,
		nowFunc: time.Now,
		idFunc:  uuid.NewString,
	}, nil
}

// Contains 检查灵感是否已在池中（含终态）
func (p *PostgresPool) Contains(ctx context.Context, ideaID string) (bool, error) {
	var count int64
	err := p.db.WithContext(ctx).Model(&domain.Idea{}).Where("idea_id = ?", ideaID).Count(&count).Error
	if err != nil {
		return false, common.WrapError(common.ErrCodeDatabase, "查询灵感失败", err)
	}
	return count > 0, nil
}

// Insert 插入新灵感，状态置为 proposed
// 同 ID 的非 rejected 灵感已存在时返回 *domain.DuplicateIdeaError；
// 占位者是 rejected 时把它复活回 proposed（防重不变量只覆盖存活灵感）
// 检查-写入 序列在单个事务内完成，存在行上加行锁
func (p *PostgresPool) Insert(ctx context.Context, idea *domain.Idea) error {
	if idea == nil || idea.ID == "" {
		return common.NewError(common.ErrCodeInvalidInput, "灵感缺少 ID")
	}
	if !idea.ValidRanges() {
		return common.NewError(common.ErrCodeInvalidInput, fmt.Sprintf("灵感 %s 的区间字段非法", idea.ID))
	}

	now := p.now()
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []domain.Idea
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("idea_id = ?", idea.ID).
			Limit(1).
			Find(&existing).Error
		if err != nil {
			return common.WrapError(common.ErrCodeDatabase, "查询灵感失败", err)
		}

		if len(existing) > 0 {
			occupant := existing[0]
			if occupant.Status != domain.StatusRejected {
				return &domain.DuplicateIdeaError{IdeaID: idea.ID}
			}

			// 被拒绝的占位者：复活回 proposed，留审计记录
			err := tx.Model(&domain.Idea{}).
				Where("idea_id = ?", idea.ID).
				Updates(map[string]interface{}{
					"status":     domain.StatusProposed,
					"updated_at": now,
				}).Error
			if err != nil {
				return common.WrapError(common.ErrCodeDatabase, "复活灵感失败", err)
			}
			return p.appendAudit(tx, idea.ID, occupant.Status, domain.StatusProposed, "重新提案", now)
		}

		idea.Status = domain.StatusProposed
		if idea.CreatedAt.IsZero() {
			idea.CreatedAt = now
		}
		idea.UpdatedAt = now

		if err := tx.Create(idea).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// 并发运行抢先插入了同一个 ID，按防重命中处理
				return &domain.DuplicateIdeaError{IdeaID: idea.ID}
			}
			return common.WrapError(common.ErrCodeDatabase, "保存灵感失败", err)
		}

		return p.appendAudit(tx, idea.ID, "", domain.StatusProposed, "新灵感入池", now)
	})
}

// UpdateStatus 按状态机迁移灵感状态，并记录审计条目
// 迁移到 monetized 时可附带一笔实际收益
func (p *PostgresPool) UpdateStatus(ctx context.Context, ideaID string, to domain.Status, realized *domain.RevenueRecord) error {
	if !to.Valid() {
		return common.NewError(common.ErrCodeInvalidInput, fmt.Sprintf("未知状态: %s", to))
	}
	if realized != nil && to != domain.StatusMonetized {
		return common.NewError(common.ErrCodeInvalidInput, "只有迁移到 monetized 时才能附带收益记录")
	}

	now := p.now()
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []domain.Idea
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("idea_id = ?", ideaID).
			Limit(1).
			Find(&existing).Error
		if err != nil {
			return common.WrapError(common.ErrCodeDatabase, "查询灵感失败", err)
		}
		if len(existing) == 0 {
			return &domain.NotFoundError{IdeaID: ideaID}
		}

		current := existing[0]
		if !domain.CanTransition(current.Status, to) {
			return &domain.InvalidTransitionError{IdeaID: ideaID, From: current.Status, To: to}
		}

		updates := map[string]interface{}{
			"status":     to,
			"updated_at": now,
		}
		if realized != nil {
			updates["realized_revenue"] = current.RealizedRevenue + realized.Amount
		}
		err = tx.Model(&domain.Idea{}).Where("idea_id = ?", ideaID).Updates(updates).Error
		if err != nil {
			return common.WrapError(common.ErrCodeDatabase, "更新灵感状态失败", err)
		}

		if realized != nil {
			realized.ID = p.newID()
			realized.IdeaID = ideaID
			realized.RecordedAt = now
			if err := tx.Create(realized).Error; err != nil {
				return common.WrapError(common.ErrCodeDatabase, "保存收益记录失败", err)
			}
		}

		return p.appendAudit(tx, ideaID, current.Status, to, "", now)
	})
}

// List 按状态/路径过滤的只读扫描，空切片表示不过滤该维度
// 固定排序保证结果可复现
func (p *PostgresPool) List(ctx context.Context, filter port.ListFilter) ([]*domain.Idea, error) {
	q := p.db.WithContext(ctx).Model(&domain.Idea{})
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if len(filter.Pathways) > 0 {
		q = q.Where("pathway IN ?", filter.Pathways)
	}

	var ideas []*domain.Idea
	err := q.Order("created_at asc").Order("idea_id asc").Find(&ideas).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "扫描资产池失败", err)
	}
	return ideas, nil
}

// AddRevenue 为已变现的灵感补记一笔收益，同时累加灵感上的累计收益
func (p *PostgresPool) AddRevenue(ctx context.Context, rev *domain.RevenueRecord) error {
	if rev == nil || rev.IdeaID == "" {
		return common.NewError(common.ErrCodeInvalidInput, "收益记录缺少灵感 ID")
	}
	if rev.Amount <= 0 {
		return common.NewError(common.ErrCodeInvalidInput, "收益金额必须为正")
	}

	now := p.now()
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []domain.Idea
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("idea_id = ?", rev.IdeaID).
			Limit(1).
			Find(&existing).Error
		if err != nil {
			return common.WrapError(common.ErrCodeDatabase, "查询灵感失败", err)
		}
		if len(existing) == 0 {
			return &domain.NotFoundError{IdeaID: rev.IdeaID}
		}

		rev.ID = p.newID()
		rev.RecordedAt = now
		if err := tx.Create(rev).Error; err != nil {
			return common.WrapError(common.ErrCodeDatabase, "保存收益记录失败", err)
		}

		err = tx.Model(&domain.Idea{}).
			Where("idea_id = ?", rev.IdeaID).
			Updates(map[string]interface{}{
				"realized_revenue": existing[0].RealizedRevenue + rev.Amount,
				"updated_at":       now,
			}).Error
		if err != nil {
			return common.WrapError(common.ErrCodeDatabase, "累加灵感收益失败", err)
		}
		return nil
	})
}

// RevenueStats 收益统计，ideaID 为空时统计全部
func (p *PostgresPool) RevenueStats(ctx context.Context, ideaID string) (*domain.RevenueStats, error) {
	q := p.db.WithContext(ctx).Model(&domain.RevenueRecord{})
	if ideaID != "" {
		q = q.Where("idea_id = ?", ideaID)
	}

	var records []*domain.RevenueRecord
	if err := q.Order("recorded_at asc").Find(&records).Error; err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询收益记录失败", err)
	}

	stats := &domain.RevenueStats{BySource: map[string]int{}}
	for _, r := range records {
		stats.Total += r.Amount
		stats.Count++
		stats.BySource[r.Source] += r.Amount
	}
	if stats.Count > 0 {
		stats.Average = float64(stats.Total) / float64(stats.Count)
	}
	return stats, nil
}

// Overview 资产池概览：各状态的灵感数量 + 收益总量
func (p *PostgresPool) Overview(ctx context.Context) (*domain.PoolOverview, error) {
	type statusCount struct {
		Status domain.Status
		Count  int
	}
	var counts []statusCount
	err := p.db.WithContext(ctx).Model(&domain.Idea{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "统计灵感数量失败", err)
	}

	overview := &domain.PoolOverview{ByStatus: map[domain.Status]int{}}
	for _, c := range counts {
		overview.ByStatus[c.Status] = c.Count
		overview.Total += c.Count
	}

	stats, err := p.RevenueStats(ctx, "")
	if err != nil {
		return nil, err
	}
	overview.TotalRevenue = stats.Total
	overview.RevenueCount = stats.Count

	return overview, nil
}

// appendAudit 追加一条状态变更审计记录
func (p *PostgresPool) appendAudit(tx *gorm.DB, ideaID string, from, to domain.Status, notes string, at time.Time) error {
	change := &domain.StatusChange{
		ID:        p.newID(),
		IdeaID:    ideaID,
		From:      from,
		To:        to,
		Notes:     notes,
		ChangedAt: at,
	}
	if err := tx.Create(change).Error; err != nil {
		return common.WrapError(common.ErrCodeDatabase, "保存审计记录失败", err)
	}
	return nil
}

func (p *PostgresPool) now() time.Time {
	if p.nowFunc != nil {
		return p.nowFunc()
	}
	return time.Now()
}

func (p *PostgresPool) newID() string {
	if p.idFunc != nil {
		return p.idFunc()
	}
	return uuid.NewString()
}
