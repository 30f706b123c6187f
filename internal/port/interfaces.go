package port

import (
	"context"

	"money-idea-miner/internal/domain"
)

// Scouter (侦察兵): 负责从外部数据源发现热门项目
// 抓取失败时返回 *domain.FetchError，整次运行中止
type Scouter interface {
	// 例如: FetchTrending(ctx, "weekly", 20)
	FetchTrending(ctx context.Context, window string, limit int) ([]*domain.RepositoryRecord, error)

	// 抓取单个项目详情，供"分析特定项目"模式使用
	FetchRepository(ctx context.Context, owner, name string) (*domain.RepositoryRecord, error)
}

// Scorer (评分器): 纯函数，对单个项目计算变现潜力
// 对合法输入永不报错，同样输入必须产出同样结果
type Scorer interface {
	Score(record *domain.RepositoryRecord) domain.ScoreResult
}

// Generator (灵感生成器): 把打过分的项目展开成 0-4 条灵感
// 分类无法识别时返回空切片，这是正常结果不是错误
type Generator interface {
	Generate(record *domain.RepositoryRecord, score domain.ScoreResult) []*domain.Idea
}

// Matcher (偏好匹配器): 按用户偏好过滤并排序灵感
// 纯函数，排序是带显式平局判定的全序
type Matcher interface {
	Match(ideas []*domain.Idea, prefs domain.UserPreferences) []*domain.Idea
}

// AssetPool (资产池): 灵感的持久化存储，负责防重与状态跟踪
// Insert 和 UpdateStatus 必须对检查-写入序列保持原子性，
// 防止并发运行同时插入同一个 IdeaID
type AssetPool interface {
	// 是否存在该 ID 的灵感（含终态）
	Contains(ctx context.Context, ideaID string) (bool, error)

	// 插入新灵感，状态置为 proposed
	// 同 ID 的非 rejected 灵感已存在时返回 *domain.DuplicateIdeaError
	Insert(ctx context.Context, idea *domain.Idea) error

	// 状态迁移，记录审计条目
	// 未命中返回 *domain.NotFoundError，非法迁移返回 *domain.InvalidTransitionError
	// 迁移到 monetized 时可附带实际收益记录
	UpdateStatus(ctx context.Context, ideaID string, to domain.Status, realized *domain.RevenueRecord) error

	// 按状态/路径过滤的只读扫描
	List(ctx context.Context, filter ListFilter) ([]*domain.Idea, error)

	// 记录一笔实际收益
	AddRevenue(ctx context.Context, rev *domain.RevenueRecord) error

	// 收益统计，ideaID 为空时统计全部
	RevenueStats(ctx context.Context, ideaID string) (*domain.RevenueStats, error)

	// 资产池概览
	Overview(ctx context.Context) (*domain.PoolOverview, error)
}

// ListFilter 资产池扫描条件，空切片表示不过滤该维度
type ListFilter struct {
	Statuses []domain.Status
	Pathways []domain.Pathway
}

// Notifier (信使): 把排名靠前的灵感推送到通知通道
type Notifier interface {
	Notify(ctx context.Context, idea *domain.Idea) error
}

// Appraiser (鉴定师): 调用 LLM 对资产池内容做语义问答
type Appraiser interface {
	SemanticSearch(ctx context.Context, ideas []*domain.Idea, query string) (string, error)
}
