package generator

import (
	"fmt"
	"math"
	"time"

	"money-idea-miner/internal/config"
	"money-idea-miner/internal/domain"
)

// IdeaGenerator 实现了 port.Generator 接口
// 表驱动：分类 → 适用路径 → 模板，所有数字来自注入的配置
type IdeaGenerator struct {
	cfg     config.GeneratorConfig
	nowFunc func() time.Time // 便于测试注入当前时间
}

// NewIdeaGenerator 创建生成器实例
func NewIdeaGenerator(cfg config.GeneratorConfig) *IdeaGenerator {
	return &IdeaGenerator{
		cfg:     cfg,
		nowFunc: time.Now,
	}
}

// Generate 把打过分的项目展开成灵感列表，每条适用路径一条
// 分类不在适配表中（含空分类）时返回空切片——无法变现是正常结果，不是错误
func (g *IdeaGenerator) Generate(record *domain.RepositoryRecord, score domain.ScoreResult) []*domain.Idea {
	pathways, ok := g.cfg.Affinity[score.Category]
	if !ok || len(pathways) == 0 {
		return nil
	}

	now := time.Now()
	if g != nil && g.nowFunc != nil {
		now = g.nowFunc()
	}

	ideas := make([]*domain.Idea, 0, len(pathways))
	for _, pathway := range pathways {
		tpl, ok := g.cfg.Templates[pathway]
		if !ok {
			continue
		}

		idea := &domain.Idea{
			// ID 在创建时立即算出，只依赖 (项目, 路径)
			// 之后改模板文案不会改变身份，防重行为保持稳定
			ID:             domain.IdeaID(record.FullName(), pathway),
			Title:          fmt.Sprintf(tpl.TitleFormat, record.Name),
			Description:    fmt.Sprintf(tpl.DescriptionFormat, record.Name),
			Pathway:        pathway,
			Audience:       append([]string(nil), tpl.Audience...),
			Cost:           tpl.Cost,
			Revenue:        g.scaleRevenue(tpl.Revenue, score.Score),
			Days:           tpl.Days,
			SourceRepo:     record.FullName(),
			SourceURL:      record.URL,
			PotentialScore: score.Score,
			Status:         domain.StatusProposed,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		ideas = append(ideas, idea)
	}

	return ideas
}

// scaleRevenue 按潜力分数单调缩放收入区间
// factor = base + score/100，分数 0 → base 倍，分数 100 → base+1 倍
func (g *IdeaGenerator) scaleRevenue(base domain.MoneyRange, score int) domain.MoneyRange {
	factor := g.cfg.RevenueScaleBase + float64(score)/100
	scaled := domain.MoneyRange{
		Min: int(math.Round(float64(base.Min) * factor)),
		Max: int(math.Round(float64(base.Max) * factor)),
	}
	if scaled.Min < 0 {
		scaled.Min = 0
	}
	if scaled.Max < scaled.Min {
		scaled.Max = scaled.Min
	}
	return scaled
}
