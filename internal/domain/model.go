package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// RepositoryRecord 代表一次抓取中发现的开源项目
// 只在单次流水线运行中存活，不落库（落库的是派生出的 Idea）
type RepositoryRecord struct {
	Owner       string `json:"owner"` // 例如 "langchain-ai"
	Name        string `json:"name"`  // 例如 "langchain"
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stars"`
	// 趋势窗口内的新增 Star 数，衡量热度增速
	TrendingStars int       `json:"trending_stars"`
	Topics        []string  `json:"topics"`
	URL           string    `json:"url"`
	CreatedAt     time.Time `json:"created_at"`
}

// FullName 返回 "owner/name" 形式的唯一标识
func (r *RepositoryRecord) FullName() string {
	return r.Owner + "/" + r.Name
}

// Validate 校验抓取边界处的必填字段
// owner/name 是身份字段，缺失则整条记录作废（跳过该条，不中断批次）
func (r *RepositoryRecord) Validate() error {
	if strings.TrimSpace(r.Owner) == "" || strings.TrimSpace(r.Name) == "" {
		return NewValidationError(fmt.Sprintf("仓库记录缺少身份字段: owner=%q name=%q", r.Owner, r.Name))
	}
	if r.Stars < 0 || r.TrendingStars < 0 {
		return NewValidationError(fmt.Sprintf("仓库 %s 的 Star 数非法", r.FullName()))
	}
	return nil
}

// Category 变现方向分类，由评分器根据信号组判定
type Category string

const (
	CategoryTooling         Category = "tooling"          // 开发工具类
	CategoryTrainingContent Category = "training-content" // 教程/培训内容类
	CategoryConsulting      Category = "consulting"       // 技术咨询类
	CategoryManagedService  Category = "managed-service"  // 托管服务类
)

// CategoryPriority 分类的确定性优先级，数值越小优先级越高
// 评分器在多个信号组并列时按此顺序打破平局
var CategoryPriority = map[Category]int{
	CategoryTooling:         0,
	CategoryManagedService:  1,
	CategoryTrainingContent: 2,
	CategoryConsulting:      3,
}

// ScoreResult 变现潜力评分结果
type ScoreResult struct {
	// 潜力分数 (0-100)
	Score int `json:"score"`
	// 变现方向分类
	Category Category `json:"category"`
	// 促成该分数的信号列表，用于可解释性展示
	Signals []string `json:"signals"`
}

// Pathway 变现路径，作为 Idea 身份的一部分
type Pathway string

const (
	PathwayDeployService Pathway = "deploy_service"     // 部署服务
	PathwayConsulting    Pathway = "consulting"         // 技术咨询
	PathwayTraining      Pathway = "training_course"    // 培训课程
	PathwayCustomDev     Pathway = "custom_development" // 定制开发
)

// AllPathways 全部变现路径，顺序即生成时的遍历顺序（确定性）
var AllPathways = []Pathway{
	PathwayDeployService,
	PathwayConsulting,
	PathwayTraining,
	PathwayCustomDev,
}

// Valid 判断路径是否为已知枚举值
func (p Pathway) Valid() bool {
	switch p {
	case PathwayDeployService, PathwayConsulting, PathwayTraining, PathwayCustomDev:
		return true
	}
	return false
}

// Status 灵感的生命周期状态
// 状态机: proposed → accepted → executing → monetized
// rejected 可从任意非终态进入；monetized 和 rejected 是终态
type Status string

const (
	StatusProposed  Status = "proposed"
	StatusAccepted  Status = "accepted"
	StatusExecuting Status = "executing"
	StatusMonetized Status = "monetized"
	StatusRejected  Status = "rejected"
)

// transitions 允许的状态迁移边集，不允许跳级
var transitions = map[Status][]Status{
	StatusProposed:  {StatusAccepted, StatusRejected},
	StatusAccepted:  {StatusExecuting, StatusRejected},
	StatusExecuting: {StatusMonetized, StatusRejected},
	StatusMonetized: {},
	StatusRejected:  {},
}

// Terminal 判断是否为终态（终态不再参与推荐，也不允许任何迁移）
func (s Status) Terminal() bool {
	return s == StatusMonetized || s == StatusRejected
}

// Valid 判断状态是否为已知枚举值
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition 判断 from → to 是否在状态机的允许边集内
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// MoneyRange 金额区间（单位：元），始终满足 0 <= Min <= Max
type MoneyRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Mid 区间中点，用于排名时的平局判定
func (m MoneyRange) Mid() float64 {
	return float64(m.Min+m.Max) / 2
}

// Valid 校验区间不变量
func (m MoneyRange) Valid() bool {
	return m.Min >= 0 && m.Min <= m.Max
}

// DayRange 天数区间，始终满足 0 <= Min <= Max
type DayRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Valid 校验区间不变量
func (d DayRange) Valid() bool {
	return d.Min >= 0 && d.Min <= d.Max
}

// Idea 赚钱灵感，资产池中持久化的基本单元
// 身份是 (来源项目, 变现路径) 的确定性哈希，用于防重
type Idea struct {
	// 形如 "idea-3fa1b2..." 的确定性 ID，见 IdeaID
	ID string `json:"id" gorm:"primaryKey;column:idea_id"`

	Title       string  `json:"title"`
	Description string  `json:"description" gorm:"type:text"`
	Pathway     Pathway `json:"pathway" gorm:"index"`

	// 目标用户标签，供偏好匹配计算亲和度
	Audience []string `json:"audience" gorm:"serializer:json"`

	// 启动成本（元）
	Cost MoneyRange `json:"cost" gorm:"embedded;embeddedPrefix:cost_"`
	// 预期月收入（元）
	Revenue MoneyRange `json:"revenue" gorm:"embedded;embeddedPrefix:revenue_"`
	// 启动所需时间（天）
	Days DayRange `json:"days" gorm:"embedded;embeddedPrefix:days_"`

	// 来源项目信息
	SourceRepo string `json:"source_repo"` // "owner/name"
	SourceURL  string `json:"source_url"`

	// 评分器给出的潜力分数
	PotentialScore int `json:"potential_score"`

	Status    Status    `json:"status" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 变现后实际累计收益（元），只有 monetized 后才有意义
	RealizedRevenue int `json:"realized_revenue"`
}

// ValidRanges 校验三个区间的不变量
func (i *Idea) ValidRanges() bool {
	return i.Cost.Valid() && i.Revenue.Valid() && i.Days.Valid()
}

// IdeaID 计算灵感的确定性身份
// 纯函数：只依赖 (owner/name, pathway)，与标题、描述等自由文本无关
// 因此模板文案修改后重新生成，同一 (项目, 路径) 仍会命中同一个 ID
func IdeaID(sourceRepo string, pathway Pathway) string {
	sum := sha256.Sum256([]byte(sourceRepo + "|" + string(pathway)))
	return "idea-" + hex.EncodeToString(sum[:])[:16]
}

// StatusChange 状态变更审计记录，只追加不修改
type StatusChange struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	IdeaID    string    `json:"idea_id" gorm:"index"`
	From      Status    `json:"from" gorm:"column:from_status"`
	To        Status    `json:"to" gorm:"column:to_status"`
	Notes     string    `json:"notes"`
	ChangedAt time.Time `json:"changed_at"`
}

// RevenueRecord 实际收益记录
type RevenueRecord struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	IdeaID     string    `json:"idea_id" gorm:"index"`
	Amount     int       `json:"amount"` // 元
	Source     string    `json:"source"` // 收入来源，如 "闲鱼"
	Notes      string    `json:"notes"`
	RecordedAt time.Time `json:"recorded_at"`
}

// UserPreferences 用户偏好，按次传入的只读输入
type UserPreferences struct {
	// 预算上限（元），启动成本下限超过预算的灵感会被过滤
	Budget int `json:"budget" yaml:"budget"`
	// 每天可投入小时数
	HoursPerDay float64 `json:"hours_per_day" yaml:"hours_per_day"`
	// 技能标签
	Skills []string `json:"skills" yaml:"skills"`
	// 兴趣标签
	Interests []string `json:"interests" yaml:"interests"`
}

// PoolOverview 资产池概览统计
type PoolOverview struct {
	Total        int            `json:"total"`
	ByStatus     map[Status]int `json:"by_status"`
	TotalRevenue int            `json:"total_revenue"`
	RevenueCount int            `json:"revenue_count"`
}

// RevenueStats 收益统计
type RevenueStats struct {
	Total    int            `json:"total"`
	Count    int            `json:"count"`
	Average  float64        `json:"average"`
	BySource map[string]int `json:"by_source"`
}
