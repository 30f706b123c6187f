package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"money-idea-miner/internal/domain"
	"money-idea-miner/internal/port"
)

// IdeaService 编排整条灵感流水线:
// 抓取 → 评分 → 生成 → 防重入池 → 偏好匹配 → 推送/返回
type IdeaService struct {
	fetcher   port.Scouter
	scorer    port.Scorer
	generator port.Generator
	matcher   port.Matcher
	pool      port.AssetPool
	notifier  port.Notifier  // 可为 nil，不推送
	appraiser port.Appraiser // 可为 nil，语义搜索不可用
	notifyTop int            // 每轮最多推送几条
}

// NewIdeaService 创建灵感服务
func NewIdeaService(
	fetcher port.Scouter,
	scorer port.Scorer,
	generator port.Generator,
	matcher port.Matcher,
	pool port.AssetPool,
	notifier port.Notifier,
	appraiser port.Appraiser,
) *IdeaService {
	return &IdeaService{
		fetcher:   fetcher,
		scorer:    scorer,
		generator: generator,
		matcher:   matcher,
		pool:      pool,
		notifier:  notifier,
		appraiser: appraiser,
		notifyTop: 3,
	}
}

// SetNotifyTop 设置每轮推送的灵感条数上限
func (s *IdeaService) SetNotifyTop(n int) {
	if n >= 0 {
		s.notifyTop = n
	}
}

// ExecuteGenerationCycle 执行一次灵感生成周期
// 抓取失败会中止整次运行并返回单个聚合错误；
// 防重命中和单条记录非法只记日志跳过，不影响批次
func (s *IdeaService) ExecuteGenerationCycle(ctx context.Context, prefs domain.UserPreferences, window string, limit int) ([]*domain.Idea, error) {
	fmt.Println("🚀 [灵感模式] 开始搜寻热门项目的赚钱灵感...")

	// 1. 抓取 (Fetcher) —— 唯一会中止运行的环节
	fmt.Printf("📥 正在抓取 %s 窗口的热门项目...\n", window)
	records, err := s.fetcher.FetchTrending(ctx, window, limit)
	if err != nil {
		return nil, err
	}
	fmt.Printf("✅ 成功获取 %d 个热门项目\n", len(records))

	// 2. 评分 + 生成 (Scorer / Generator) —— 纯计算，不会失败
	fmt.Println("🧠 开始评分与灵感生成...")
	var candidates []*domain.Idea
	for _, record := range records {
		if err := record.Validate(); err != nil {
			log.Printf("⚠️ 跳过非法记录: %v", err)
			continue
		}

		result := s.scorer.Score(record)
		ideas := s.generator.Generate(record, result)
		if len(ideas) == 0 {
			fmt.Printf("⏭️ 项目 %s 无可变现方向 (分数 %d)\n", record.FullName(), result.Score)
			continue
		}
		fmt.Printf("💡 项目 %s: 分数 %d, 方向 %s, 生成 %d 条灵感\n",
			record.FullName(), result.Score, result.Category, len(ideas))
		candidates = append(candidates, ideas...)
	}

	// 3. 防重入池 (AssetPool)
	fmt.Println("💾 开始入池去重...")
	fresh := make([]*domain.Idea, 0, len(candidates))
	for _, idea := range candidates {
		select {
		case <-ctx.Done():
			fmt.Println("⏰ 执行时间过长，提前结束入池阶段")
			return nil, ctx.Err()
		default:
		}

		err := s.pool.Insert(ctx, idea)
		var dup *domain.DuplicateIdeaError
		if errors.As(err, &dup) {
			fmt.Printf("⏭️ 灵感 %s 已在池中，跳过\n", idea.Title)
			continue
		}
		if err != nil {
			log.Printf("❌ 保存灵感 %s 失败: %v，跳过该条", idea.Title, err)
			continue
		}
		fresh = append(fresh, idea)
	}
	fmt.Printf("✅ 本轮新入池 %d 条灵感\n", len(fresh))

	// 4. 偏好匹配 (Matcher) —— 纯计算
	ranked := s.matcher.Match(fresh, prefs)

	// 5. 推送排名靠前的灵感
	if s.notifier != nil {
		for i, idea := range ranked {
			if i >= s.notifyTop {
				break
			}
			if err := s.notifier.Notify(ctx, idea); err != nil {
				log.Printf("❌ 推送灵感 %s 失败: %v", idea.Title, err)
				continue
			}
			fmt.Printf("📲 已推送灵感 %s\n", idea.Title)
		}
	}

	fmt.Printf("🎉 本轮完成，共返回 %d 条灵感\n", len(ranked))
	return ranked, nil
}

// AnalyzeProject 分析单个项目的变现潜力，不入池
func (s *IdeaService) AnalyzeProject(ctx context.Context, owner, name string, prefs domain.UserPreferences) (domain.ScoreResult, []*domain.Idea, error) {
	record, err := s.fetcher.FetchRepository(ctx, owner, name)
	if err != nil {
		return domain.ScoreResult{}, nil, err
	}
	if err := record.Validate(); err != nil {
		return domain.ScoreResult{}, nil, err
	}

	result := s.scorer.Score(record)
	ideas := s.generator.Generate(record, result)
	return result, s.matcher.Match(ideas, prefs), nil
}

// RecommendFromPool 对池中已有的灵感按当前偏好重新排序
// 终态灵感（monetized/rejected）由匹配器默认排除
func (s *IdeaService) RecommendFromPool(ctx context.Context, prefs domain.UserPreferences) ([]*domain.Idea, error) {
	ideas, err := s.pool.List(ctx, port.ListFilter{})
	if err != nil {
		return nil, err
	}
	return s.matcher.Match(ideas, prefs), nil
}

// UpdateIdeaStatus 状态迁移的直通封装
func (s *IdeaService) UpdateIdeaStatus(ctx context.Context, ideaID string, to domain.Status, realized *domain.RevenueRecord) error {
	return s.pool.UpdateStatus(ctx, ideaID, to, realized)
}

// RecordRevenue 补记一笔实际收益
func (s *IdeaService) RecordRevenue(ctx context.Context, ideaID string, amount int, source, notes string) error {
	return s.pool.AddRevenue(ctx, &domain.RevenueRecord{
		IdeaID: ideaID,
		Amount: amount,
		Source: source,
		Notes:  notes,
	})
}

// PoolOverview 资产池概览
func (s *IdeaService) PoolOverview(ctx context.Context) (*domain.PoolOverview, error) {
	return s.pool.Overview(ctx)
}

// SemanticSearch 用自然语言对资产池提问
func (s *IdeaService) SemanticSearch(ctx context.Context, query string) (string, error) {
	if s.appraiser == nil {
		return "", errors.New("未配置 AI 鉴定师，语义搜索不可用")
	}

	ideas, err := s.pool.List(ctx, port.ListFilter{})
	if err != nil {
		return "", err
	}
	return s.appraiser.SemanticSearch(ctx, ideas, query)
}
