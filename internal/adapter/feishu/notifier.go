package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"money-idea-miner/internal/common"
	"money-idea-miner/internal/domain"
)

// Notifier 实现了 port.Notifier 接口，向飞书群推送灵感卡片
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewNotifier 创建飞书通知器
func NewNotifier(webhook string) *Notifier {
	if webhook == "" {
		log.Println("⚠️ 警告: 飞书 Webhook 为空，推送功能将无法工作！")
	}
	return &Notifier{
		webhookURL: webhook,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify 发送飞书卡片消息 (Schema 2.0)
func (n *Notifier) Notify(ctx context.Context, idea *domain.Idea) error {
	if n.webhookURL == "" {
		return common.NewError(common.ErrCodeNotification, "Webhook URL 为空")
	}

	title := fmt.Sprintf("💰 新赚钱灵感: %s", idea.Title)

	mdContent := fmt.Sprintf(`**📝 描述:**
%s

**👥 目标用户:** %s
**🏆 潜力分数:** %d/100

**💸 启动成本:** ¥%d - ¥%d
**📈 预期月收入:** ¥%d - ¥%d
**⏱ 启动时间:** %.1f - %.1f 天

🔗 %s
`,
		idea.Description,
		strings.Join(idea.Audience, "、"),
		idea.PotentialScore,
		idea.Cost.Min, idea.Cost.Max,
		idea.Revenue.Min, idea.Revenue.Max,
		idea.Days.Min, idea.Days.Max,
		idea.SourceURL)

	payload := map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"schema": "2.0",
			"config": map[string]interface{}{
				"update_multi": true,
			},
			"header": map[string]interface{}{
				"title": map[string]interface{}{
					"tag":     "plain_text",
					"content": title,
				},
				"template": "orange",
			},
			"body": map[string]interface{}{
				"elements": []map[string]interface{}{
					{
						"tag":     "markdown",
						"content": mdContent,
					},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "序列化卡片失败", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "构造请求失败", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "推送飞书失败", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return common.NewError(common.ErrCodeNotification, fmt.Sprintf("飞书返回非 200 状态码: %d", resp.StatusCode))
	}
	return nil
}
