package pool

import (
	"context"
	"regexp"
	"testing"
	"time"

	"money-idea-miner/internal/domain"
	"money-idea-miner/internal/port"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockDB 创建一个模拟的数据库连接
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	// 禁用日志以减少输出；TranslateError 与生产配置保持一致
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}

func testPool(db *gorm.DB) *PostgresPool {
	return &PostgresPool{
		db:      db,
		nowFunc: func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) },
		idFunc:  func() string { return "audit-0001" },
	}
}

func validIdea() *domain.Idea {
	return &domain.Idea{
		ID:          domain.IdeaID("acme/auto-coder", domain.PathwayDeployService),
		Title:       "auto-coder 部署服务",
		Description: "帮助用户部署 auto-coder，提供技术支持",
		Pathway:     domain.PathwayDeployService,
		Audience:    []string{"技术小白", "企业用户"},
		Cost:        domain.MoneyRange{Min: 100, Max: 500},
		Revenue:     domain.MoneyRange{Min: 2000, Max: 10000},
		Days:        domain.DayRange{Min: 1, Max: 3},
		SourceRepo:  "acme/auto-coder",
		SourceURL:   "https://github.com/acme/auto-coder",
	}
}

func TestPostgresPool_Contains(t *testing.T) {
	tests := []struct {
		name         string
		setupMock    func(sqlmock.Sqlmock)
		expectExists bool
		expectError  bool
	}{
		{
			name: "灵感已存在",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"count"}).AddRow(1)
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "ideas"`)).
					WillReturnRows(rows)
			},
			expectExists: true,
		},
		{
			name: "灵感不存在",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"count"}).AddRow(0)
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "ideas"`)).
					WillReturnRows(rows)
			},
			expectExists: false,
		},
		{
			name: "数据库错误",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "ideas"`)).
					WillReturnError(gorm.ErrInvalidDB)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			tt.setupMock(mock)

			p := testPool(gormDB)
			exists, err := p.Contains(context.Background(), "idea-abc")

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectExists, exists)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresPool_Insert(t *testing.T) {
	tests := []struct {
		name      string
		idea      *domain.Idea
		setupMock func(sqlmock.Sqlmock)
		verify    func(*testing.T, error)
	}{
		{
			name: "新灵感成功入池",
			idea: validIdea(),
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ideas"`)).
					WillReturnRows(sqlmock.NewRows([]string{"idea_id", "status"}))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "ideas"`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "status_changes"`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			verify: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "同 ID 存活灵感导致防重错误",
			idea: validIdea(),
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				rows := sqlmock.NewRows([]string{"idea_id", "status"}).
					AddRow(validIdea().ID, string(domain.StatusProposed))
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ideas"`)).
					WillReturnRows(rows)
				mock.ExpectRollback()
			},
			verify: func(t *testing.T, err error) {
				var dup *domain.DuplicateIdeaError
				assert.ErrorAs(t, err, &dup)
				assert.Equal(t, validIdea().ID, dup.IdeaID)
			},
		},
		{
			name: "同 ID 执行中灵感同样防重",
			idea: validIdea(),
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				rows := sqlmock.NewRows([]string{"idea_id", "status"}).
					AddRow(validIdea().ID, string(domain.StatusExecuting))
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ideas"`)).
					WillReturnRows(rows)
				mock.ExpectRollback()
			},
			verify: func(t *testing.T, err error) {
				var dup *domain.DuplicateIdeaError
				assert.ErrorAs(t, err, &dup)
			},
		},
		{
			name: "被拒绝的占位者复活回 proposed",
			idea: validIdea(),
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				rows := sqlmock.NewRows([]string{"idea_id", "status"}).
					AddRow(validIdea().ID, string(domain.StatusRejected))
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ideas"`)).
					WillReturnRows(rows)
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "ideas"`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "status_changes"`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			verify: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "并发竞争撞上主键约束按防重处理",
			idea: validIdea(),
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ideas"`)).
					WillReturnRows(sqlmock.NewRows([]string{"idea_id", "status"}))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "ideas"`)).
					WillReturnError(gorm.ErrDuplicatedKey)
				mock.ExpectRollback()
			},
			verify: func(t *testing.T, err error) {
				var dup *domain.DuplicateIdeaError
				assert.ErrorAs(t, err, &dup)
			},
		},
		{
			name: "区间非法的灵感不进事务",
			idea: func() *domain.Idea {
				i := validIdea()
				i.Cost = domain.MoneyRange{Min: 500, Max: 100}
				return i
			}(),
			setupMock: func(mock sqlmock.Sqlmock) {},
			verify: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
		{
			name: "缺 ID 的灵感被拒绝",
			idea: func() *domain.Idea {
				i := validIdea()
				i.ID = ""
				return i
			}(),
			setupMock: func(mock sqlmock.Sqlmock) {},
			verify: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			tt.setupMock(mock)

			p := testPool(gormDB)
			err := p.Insert(context.Background(), tt.idea)

			tt.verify(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresPool_UpdateStatus(t *testing.T) {
	tests := []struct {
		name      string
		to        domain.Status
		realized  *domain.RevenueRecord
		setupMock func(sqlmock.Sqlmock)
		verify    func(*testing.T, error)
	}{
		{
			name: "提案到接受的合法迁移",
			to:   domain.StatusAccepted,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				rows := sqlmock.NewRows([]string{"idea_id", "status", "realized_revenue"}).
					AddRow("idea-abc", string(domain.StatusProposed), 0)
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ideas"`)).
					WillReturnRows(rows)
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "ideas"`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "status_changes"`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			verify: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "提案不能跳级直接变现",
			to:   domain.StatusMonetized,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				rows := sqlmock.NewRows([]string{"idea_id", "status", "realized_revenue"}).
					AddRow("idea-abc", string(domain.StatusProposed), 0)
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ideas"`)).
					WillReturnRows(rows)
				mock.ExpectRollback()
			},
			verify: func(t *testing.T, err error) {
				var invalid *domain.InvalidTransitionError
				assert.ErrorAs(t, err, &invalid)
				assert.Equal(t, domain.StatusProposed, invalid.From)
				assert.Equal(t, domain.StatusMonetized, invalid.To)
			},
		},
		{
			name: "终态灵感不允许任何迁移",
			to:   domain.StatusRejected,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				rows := sqlmock.NewRows([]string{"idea_id", "status", "realized_revenue"}).
					AddRow("idea-abc", string(domain.StatusMonetized), 8000)
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ideas"`)).
					WillReturnRows(rows)
				mock.ExpectRollback()
			},
			verify: func(t *testing.T, err error) {
				var invalid *domain.InvalidTransitionError
				assert.ErrorAs(t, err, &invalid)
			},
		},
		{
			name: "未命中返回 NotFound",
			to:   domain.StatusAccepted,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ideas"`)).
					WillReturnRows(sqlmock.NewRows([]string{"idea_id", "status", "realized_revenue"}))
				mock.ExpectRollback()
			},
			verify: func(t *testing.T, err error) {
				var notFound *domain.NotFoundError
				assert.ErrorAs(t, err, &notFound)
			},
		},
		{
			name:     "执行中变现并记录收益",
			to:       domain.StatusMonetized,
			realized: &domain.RevenueRecord{Amount: 299, Source: "闲鱼"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				rows := sqlmock.NewRows([]string{"idea_id", "status", "realized_revenue"}).
					AddRow("idea-abc", string(domain.StatusExecuting), 0)
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ideas"`)).
					WillReturnRows(rows)
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "ideas"`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "revenue_records"`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "status_changes"`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			verify: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:      "未知状态直接拒绝",
			to:        domain.Status("archived"),
			setupMock: func(mock sqlmock.Sqlmock) {},
			verify: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
		{
			name:      "收益记录只允许配合变现迁移",
			to:        domain.StatusAccepted,
			realized:  &domain.RevenueRecord{Amount: 100, Source: "闲鱼"},
			setupMock: func(mock sqlmock.Sqlmock) {},
			verify: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			tt.setupMock(mock)

			p := testPool(gormDB)
			err := p.UpdateStatus(context.Background(), "idea-abc", tt.to, tt.realized)

			tt.verify(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresPool_List(t *testing.T) {
	gormDB, mock, cleanup := setupMockDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"idea_id", "title", "pathway", "status", "cost_min", "cost_max"}).
		AddRow("idea-1", "A 部署服务", string(domain.PathwayDeployService), string(domain.StatusProposed), 100, 500).
		AddRow("idea-2", "B 培训课程", string(domain.PathwayTraining), string(domain.StatusAccepted), 0, 200)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ideas"`)).
		WillReturnRows(rows)

	p := testPool(gormDB)
	ideas, err := p.List(context.Background(), port.ListFilter{
		Statuses: []domain.Status{domain.StatusProposed, domain.StatusAccepted},
	})

	assert.NoError(t, err)
	assert.Len(t, ideas, 2)
	assert.Equal(t, "idea-1", ideas[0].ID)
	assert.Equal(t, domain.PathwayTraining, ideas[1].Pathway)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPool_AddRevenue(t *testing.T) {
	tests := []struct {
		name      string
		rev       *domain.RevenueRecord
		setupMock func(sqlmock.Sqlmock)
		verify    func(*testing.T, error)
	}{
		{
			name: "成功补记收益",
			rev:  &domain.RevenueRecord{IdeaID: "idea-abc", Amount: 299, Source: "闲鱼"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				rows := sqlmock.NewRows([]string{"idea_id", "status", "realized_revenue"}).
					AddRow("idea-abc", string(domain.StatusMonetized), 1000)
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ideas"`)).
					WillReturnRows(rows)
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "revenue_records"`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "ideas"`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			verify: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "灵感不存在",
			rev:  &domain.RevenueRecord{IdeaID: "idea-missing", Amount: 100, Source: "闲鱼"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ideas"`)).
					WillReturnRows(sqlmock.NewRows([]string{"idea_id", "status", "realized_revenue"}))
				mock.ExpectRollback()
			},
			verify: func(t *testing.T, err error) {
				var notFound *domain.NotFoundError
				assert.ErrorAs(t, err, &notFound)
			},
		},
		{
			name:      "非正金额被拒绝",
			rev:       &domain.RevenueRecord{IdeaID: "idea-abc", Amount: 0},
			setupMock: func(mock sqlmock.Sqlmock) {},
			verify: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			tt.setupMock(mock)

			p := testPool(gormDB)
			err := p.AddRevenue(context.Background(), tt.rev)

			tt.verify(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresPool_RevenueStats(t *testing.T) {
	gormDB, mock, cleanup := setupMockDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "idea_id", "amount", "source"}).
		AddRow("rev-1", "idea-abc", 299, "闲鱼").
		AddRow("rev-2", "idea-abc", 501, "淘宝").
		AddRow("rev-3", "idea-abc", 200, "闲鱼")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "revenue_records"`)).
		WillReturnRows(rows)

	p := testPool(gormDB)
	stats, err := p.RevenueStats(context.Background(), "idea-abc")

	assert.NoError(t, err)
	assert.Equal(t, 1000, stats.Total)
	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 333.33, stats.Average, 0.01)
	assert.Equal(t, 499, stats.BySource["闲鱼"])
	assert.Equal(t, 501, stats.BySource["淘宝"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPool_Overview(t *testing.T) {
	gormDB, mock, cleanup := setupMockDB(t)
	defer cleanup()

	statusRows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow(string(domain.StatusProposed), 5).
		AddRow(string(domain.StatusMonetized), 2)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, count(*) as count FROM "ideas"`)).
		WillReturnRows(statusRows)

	revenueRows := sqlmock.NewRows([]string{"id", "idea_id", "amount", "source"}).
		AddRow("rev-1", "idea-abc", 8000, "闲鱼")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "revenue_records"`)).
		WillReturnRows(revenueRows)

	p := testPool(gormDB)
	overview, err := p.Overview(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 7, overview.Total)
	assert.Equal(t, 5, overview.ByStatus[domain.StatusProposed])
	assert.Equal(t, 2, overview.ByStatus[domain.StatusMonetized])
	assert.Equal(t, 8000, overview.TotalRevenue)
	assert.Equal(t, 1, overview.RevenueCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresPool_ConnectionError(t *testing.T) {
	// 无效的连接字符串
	p, err := NewPostgresPool("invalid-connection-string")

	assert.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "连接数据库失败")
}
