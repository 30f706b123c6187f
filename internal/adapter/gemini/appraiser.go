package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"money-idea-miner/internal/common"
	"money-idea-miner/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiAppraiser 实现了 port.Appraiser 接口
// 对资产池里的灵感做自然语言问答（"我预算500块能做什么"这类问题）
type GeminiAppraiser struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiAppraiser 初始化 Gemini 客户端
func NewGeminiAppraiser(ctx context.Context, apiKey string) (*GeminiAppraiser, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, common.WrapError(common.ErrCodeAIProcessing, "初始化 Gemini 客户端失败", err)
	}

	model := client.GenerativeModel("gemini-2.5-flash-lite")

	return &GeminiAppraiser{
		client: client,
		model:  model,
	}, nil
}

// SemanticSearch 把池内灵感作为上下文，让 LLM 回答用户的自然语言问题
func (g *GeminiAppraiser) SemanticSearch(ctx context.Context, ideas []*domain.Idea, query string) (string, error) {
	if len(ideas) == 0 {
		return "资产池是空的，还没有可供分析的灵感。", nil
	}

	// 只喂关键字段，控制 Token 消耗
	type briefIdea struct {
		Title      string  `json:"title"`
		Pathway    string  `json:"pathway"`
		Status     string  `json:"status"`
		CostMin    int     `json:"cost_min"`
		CostMax    int     `json:"cost_max"`
		RevenueMin int     `json:"revenue_min"`
		RevenueMax int     `json:"revenue_max"`
		DaysMin    float64 `json:"days_min"`
		DaysMax    float64 `json:"days_max"`
		Score      int     `json:"score"`
		Source     string  `json:"source"`
	}

	briefs := make([]briefIdea, 0, len(ideas))
	for _, idea := range ideas {
		briefs = append(briefs, briefIdea{
			Title:      idea.Title,
			Pathway:    string(idea.Pathway),
			Status:     string(idea.Status),
			CostMin:    idea.Cost.Min,
			CostMax:    idea.Cost.Max,
			RevenueMin: idea.Revenue.Min,
			RevenueMax: idea.Revenue.Max,
			DaysMin:    idea.Days.Min,
			DaysMax:    idea.Days.Max,
			Score:      idea.PotentialScore,
			Source:     idea.SourceRepo,
		})
	}

	contextJSON, err := json.Marshal(briefs)
	if err != nil {
		return "", common.WrapError(common.ErrCodeAIProcessing, "序列化灵感上下文失败", err)
	}

	prompt := fmt.Sprintf(`
你是一个务实的独立开发者变现顾问。下面是我的赚钱灵感资产池（JSON 数组），
金额单位是人民币元，时间单位是天：

%s

请基于以上数据回答我的问题，给出具体的灵感名称和理由，用中文回答：

%s
`, string(contextJSON), query)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", common.WrapError(common.ErrCodeAIProcessing, "AI 调用失败", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", common.NewError(common.ErrCodeAIProcessing, "AI 返回内容为空")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	answer := strings.TrimSpace(sb.String())
	if answer == "" {
		return "", common.NewError(common.ErrCodeAIProcessing, "AI 返回格式错误")
	}
	return answer, nil
}

// Close 释放底层连接
func (g *GeminiAppraiser) Close() error {
	return g.client.Close()
}
