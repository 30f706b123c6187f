package config

import "money-idea-miner/internal/domain"

// ScoringConfig 评分器的全部可调参数
// 显式注入、构造后不可变，保证评分可复现（同一配置 + 同一输入 = 同一输出）
type ScoringConfig struct {
	// 各信号的权重，建议总和为 100
	VelocityWeight  float64 // 星标增速
	MagnitudeWeight float64 // 星标总量（对数缩放）
	TopicWeight     float64 // 变现友好 topic 命中
	LanguageWeight  float64 // 语言热度
	KeywordWeight   float64 // 描述关键词命中

	// 归一化上限
	VelocityCeiling float64 // 增速达到该值即记满 1.0
	StarCeiling     float64 // 对数缩放的分母基准
	TopicFullHits   int     // topic 命中多少个记满 1.0
	KeywordFullHits int     // 关键词命中多少个记满 1.0

	// 变现友好的 topic 标签
	MonetizationTopics []string
	// 描述中的变现关键词
	MonetizationKeywords []string
	// 语言热度权重 [0,1]，未列出的语言记 0
	LanguageWeights map[string]float64

	// 分类信号组：描述/topic 命中最多的组胜出
	// 并列时按 domain.CategoryPriority 打破平局
	CategoryKeywords map[domain.Category][]string

	// 潜力分数高于该阈值视为"高潜力"
	HighPotentialThreshold int
}

// DefaultScoringConfig 默认评分配置
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		VelocityWeight:  25,
		MagnitudeWeight: 20,
		TopicWeight:     20,
		LanguageWeight:  10,
		KeywordWeight:   25,

		VelocityCeiling: 200,
		StarCeiling:     100000,
		TopicFullHits:   3,
		KeywordFullHits: 3,

		MonetizationTopics: []string{
			"ai", "llm", "agent", "cli", "saas", "automation",
			"chatbot", "devtools", "api", "productivity",
		},
		MonetizationKeywords: []string{
			"api", "sdk", "cli", "framework", "platform", "tool",
			"automation", "chatbot", "assistant", "dashboard",
			"agent", "saas", "bot", "coding",
		},
		LanguageWeights: map[string]float64{
			"python":     1.0,
			"typescript": 0.9,
			"go":         0.9,
			"rust":       0.8,
			"javascript": 0.7,
			"java":       0.5,
		},
		CategoryKeywords: map[domain.Category][]string{
			domain.CategoryTooling: {
				"agent", "cli", "tool", "plugin", "automation",
				"bot", "ide", "coding", "developer", "devtools",
			},
			domain.CategoryManagedService: {
				"saas", "platform", "api", "service", "hosting",
				"cloud", "dashboard", "deploy",
			},
			domain.CategoryTrainingContent: {
				"tutorial", "course", "learn", "guide", "education", "examples",
			},
			domain.CategoryConsulting: {
				"framework", "enterprise", "architecture", "business", "integration",
			},
		},

		HighPotentialThreshold: 60,
	}
}

// IdeaTemplate 单条变现路径的灵感模板
// 标题/描述用 %s 替换项目名；区间数字来自人工整理的经验值
type IdeaTemplate struct {
	TitleFormat       string
	DescriptionFormat string
	Audience          []string
	Cost              domain.MoneyRange
	Revenue           domain.MoneyRange
	Days              domain.DayRange
}

// GeneratorConfig 灵感生成器的模板与分类适配表
type GeneratorConfig struct {
	// 路径 → 模板
	Templates map[domain.Pathway]IdeaTemplate
	// 分类 → 适用路径（表驱动，未列出的分类不产出灵感）
	Affinity map[domain.Category][]domain.Pathway
	// 收入区间随潜力分数缩放: factor = RevenueScaleBase + score/100
	// 单调递增，分数越高收入预期越高
	RevenueScaleBase float64
}

// DefaultGeneratorConfig 默认生成配置
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Templates: map[domain.Pathway]IdeaTemplate{
			domain.PathwayDeployService: {
				TitleFormat:       "%s 部署服务",
				DescriptionFormat: "帮助用户部署 %s，提供技术支持",
				Audience:          []string{"技术小白", "企业用户", "创业者"},
				Cost:              domain.MoneyRange{Min: 100, Max: 500},
				Revenue:           domain.MoneyRange{Min: 2000, Max: 10000},
				Days:              domain.DayRange{Min: 1, Max: 3},
			},
			domain.PathwayConsulting: {
				TitleFormat:       "%s 技术咨询",
				DescriptionFormat: "提供 %s 技术咨询和方案设计",
				Audience:          []string{"企业", "创业者", "产品经理"},
				Cost:              domain.MoneyRange{Min: 0, Max: 100},
				Revenue:           domain.MoneyRange{Min: 5000, Max: 20000},
				Days:              domain.DayRange{Min: 0.5, Max: 2},
			},
			domain.PathwayTraining: {
				TitleFormat:       "%s 培训课程",
				DescriptionFormat: "制作 %s 使用教程和培训课程",
				Audience:          []string{"学习者", "开发者", "企业员工"},
				Cost:              domain.MoneyRange{Min: 0, Max: 200},
				Revenue:           domain.MoneyRange{Min: 1000, Max: 50000},
				Days:              domain.DayRange{Min: 3, Max: 7},
			},
			domain.PathwayCustomDev: {
				TitleFormat:       "%s 定制开发",
				DescriptionFormat: "为用户定制开发基于 %s 的功能",
				Audience:          []string{"企业", "创业者", "产品团队"},
				Cost:              domain.MoneyRange{Min: 500, Max: 2000},
				Revenue:           domain.MoneyRange{Min: 5000, Max: 50000},
				Days:              domain.DayRange{Min: 7, Max: 30},
			},
		},
		Affinity: map[domain.Category][]domain.Pathway{
			domain.CategoryTooling: {
				domain.PathwayDeployService,
				domain.PathwayTraining,
				domain.PathwayCustomDev,
			},
			domain.CategoryManagedService: {
				domain.PathwayDeployService,
				domain.PathwayConsulting,
				domain.PathwayCustomDev,
			},
			domain.CategoryConsulting: {
				domain.PathwayConsulting,
				domain.PathwayCustomDev,
			},
			domain.CategoryTrainingContent: {
				domain.PathwayTraining,
				domain.PathwayConsulting,
			},
		},
		RevenueScaleBase: 0.5,
	}
}

// MatchConfig 偏好匹配器的策略参数
type MatchConfig struct {
	// 各路径默认需要的每日投入小时数
	// 用户每日可用时间低于该值时过滤对应路径的灵感
	HoursPerDay map[domain.Pathway]float64
	// 未列出路径的兜底值
	DefaultHoursPerDay float64
}

// DefaultMatchConfig 默认匹配配置
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		HoursPerDay: map[domain.Pathway]float64{
			domain.PathwayDeployService: 2,
			domain.PathwayConsulting:    3,
			domain.PathwayTraining:      4,
			domain.PathwayCustomDev:     6,
		},
		DefaultHoursPerDay: 4,
	}
}
