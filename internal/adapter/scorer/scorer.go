package scorer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"money-idea-miner/internal/config"
	"money-idea-miner/internal/domain"
)

// PotentialScorer 实现了 port.Scorer 接口
// 纯函数式评分：无 I/O、无副作用，配置注入后不可变
type PotentialScorer struct {
	cfg config.ScoringConfig
}

// NewPotentialScorer 创建评分器实例
func NewPotentialScorer(cfg config.ScoringConfig) *PotentialScorer {
	return &PotentialScorer{cfg: cfg}
}

// Score 计算项目的变现潜力分数与分类
// 五个信号各自归一化到 [0,1] 后加权求和：
//  1. 星标增速（趋势窗口内新增 Star）
//  2. 星标总量（对数缩放，避免巨型项目碾压）
//  3. 变现友好 topic 命中数
//  4. 语言热度
//  5. 描述中的变现关键词命中数
func (s *PotentialScorer) Score(record *domain.RepositoryRecord) domain.ScoreResult {
	desc := strings.ToLower(record.Description)
	topics := lowerSet(record.Topics)

	var signals []string
	total := 0.0

	// 1. 星标增速
	velocity := clamp01(float64(record.TrendingStars) / s.cfg.VelocityCeiling)
	if velocity > 0 {
		total += velocity * s.cfg.VelocityWeight
		signals = append(signals, fmt.Sprintf("星标增速 +%d → %.1f 分", record.TrendingStars, velocity*s.cfg.VelocityWeight))
	}

	// 2. 星标总量（log10 缩放）
	magnitude := 0.0
	if record.Stars > 0 {
		magnitude = clamp01(math.Log10(float64(record.Stars)+1) / math.Log10(s.cfg.StarCeiling))
		total += magnitude * s.cfg.MagnitudeWeight
		signals = append(signals, fmt.Sprintf("星标总量 %d → %.1f 分", record.Stars, magnitude*s.cfg.MagnitudeWeight))
	}

	// 3. topic 命中
	topicHits := 0
	for _, t := range s.cfg.MonetizationTopics {
		if topics[t] {
			topicHits++
		}
	}
	if topicHits > 0 {
		topicSignal := clamp01(float64(topicHits) / float64(s.cfg.TopicFullHits))
		total += topicSignal * s.cfg.TopicWeight
		signals = append(signals, fmt.Sprintf("变现友好 topic 命中 %d 个 → %.1f 分", topicHits, topicSignal*s.cfg.TopicWeight))
	}

	// 4. 语言热度
	if lang := strings.ToLower(record.Language); lang != "" {
		if w, ok := s.cfg.LanguageWeights[lang]; ok {
			langSignal := clamp01(w)
			total += langSignal * s.cfg.LanguageWeight
			signals = append(signals, fmt.Sprintf("热门语言 %s → %.1f 分", record.Language, langSignal*s.cfg.LanguageWeight))
		}
	}

	// 5. 描述关键词命中（描述为空时该信号为 0，不是错误）
	keywordHits := 0
	for _, k := range s.cfg.MonetizationKeywords {
		if desc != "" && strings.Contains(desc, k) {
			keywordHits++
		}
	}
	if keywordHits > 0 {
		keywordSignal := clamp01(float64(keywordHits) / float64(s.cfg.KeywordFullHits))
		total += keywordSignal * s.cfg.KeywordWeight
		signals = append(signals, fmt.Sprintf("变现关键词命中 %d 个 → %.1f 分", keywordHits, keywordSignal*s.cfg.KeywordWeight))
	}

	score := int(math.Round(total))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	category := s.pickCategory(desc, topics)
	if category != "" {
		signals = append(signals, fmt.Sprintf("变现方向: %s", category))
	}

	return domain.ScoreResult{
		Score:    score,
		Category: category,
		Signals:  signals,
	}
}

// pickCategory 选出命中信号最多的分类信号组
// 并列时按 domain.CategoryPriority 的固定顺序取优先级最高者，
// 保证同一输入永远得到同一分类；全部未命中时返回空分类
func (s *PotentialScorer) pickCategory(desc string, topics map[string]bool) domain.Category {
	ordered := make([]domain.Category, 0, len(domain.CategoryPriority))
	for c := range domain.CategoryPriority {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return domain.CategoryPriority[ordered[i]] < domain.CategoryPriority[ordered[j]]
	})

	var best domain.Category
	bestHits := 0
	for _, c := range ordered {
		hits := 0
		for _, k := range s.cfg.CategoryKeywords[c] {
			if topics[k] || (desc != "" && strings.Contains(desc, k)) {
				hits++
			}
		}
		// 严格大于才替换，优先级顺序即平局规则
		if hits > bestHits {
			best = c
			bestHits = hits
		}
	}

	return best
}

// IsHighPotential 判断分数是否超过高潜力阈值
func (s *PotentialScorer) IsHighPotential(result domain.ScoreResult) bool {
	return result.Score > s.cfg.HighPotentialThreshold
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}
