package github

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"money-idea-miner/internal/common"
	"money-idea-miner/internal/domain"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

// Fetcher 实现了 port.Scouter 接口
// GitHub 没有官方 Trending API，用搜索接口按 Star 排序近似模拟
type Fetcher struct {
	client      *github.Client
	searchTerms []string
	nowFunc     func() time.Time // 便于测试注入当前时间
}

// DefaultSearchTerms 默认关注的领域关键词
var DefaultSearchTerms = []string{
	"AI LLM agent",
	"AI automation",
	"LLM tools",
}

// NewFetcher 初始化 GitHub 客户端
// token 为空时匿名访问（限制 60 次/小时）
func NewFetcher(token string, searchTerms []string) *Fetcher {
	var client *github.Client

	if token == "" {
		client = github.NewClient(nil)
	} else {
		ctx := context.Background()
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(ctx, ts)
		client = github.NewClient(tc)
	}

	if len(searchTerms) == 0 {
		searchTerms = DefaultSearchTerms
	}

	return &Fetcher{
		client:      client,
		searchTerms: searchTerms,
		nowFunc:     time.Now,
	}
}

// FetchTrending 抓取趋势窗口内的热门项目
// window: daily / weekly / monthly；任何关键词全部失败时
// 返回 *domain.FetchError，整次运行中止
func (f *Fetcher) FetchTrending(ctx context.Context, window string, limit int) ([]*domain.RepositoryRecord, error) {
	now := time.Now()
	if f != nil && f.nowFunc != nil {
		now = f.nowFunc()
	}

	windowDays := windowToDays(window)
	since := now.AddDate(0, 0, -windowDays).Format("2006-01-02")

	if limit <= 0 {
		limit = 20
	}

	seen := make(map[string]bool)
	var records []*domain.RepositoryRecord
	var lastErr error

	for _, term := range f.searchTerms {
		query := fmt.Sprintf("%s created:>%s stars:>50", term, since)
		opts := &github.SearchOptions{
			Sort:  "stars",
			Order: "desc",
			ListOptions: github.ListOptions{
				PerPage: limit,
			},
		}

		var result *github.RepositoriesSearchResult
		err := common.Do(ctx, func() error {
			var apiErr error
			result, _, apiErr = f.client.Search.Repositories(ctx, query, opts)
			return apiErr
		},
			common.WithMaxRetries(3),
			common.WithInitialDelay(time.Second),
		)
		if err != nil {
			log.Printf("⚠️ 搜索关键词 %q 失败: %v", term, err)
			lastErr = err
			continue
		}

		for _, item := range result.Repositories {
			record := f.toRecord(item, now, windowDays)
			if record == nil || seen[record.FullName()] {
				continue
			}
			seen[record.FullName()] = true
			records = append(records, record)
		}
	}

	// 所有关键词都失败才算抓取失败，单个聚合错误向上传播
	if len(records) == 0 && lastErr != nil {
		return nil, domain.NewFetchError(lastErr)
	}

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// FetchRepository 抓取单个项目的详情，供分析特定项目模式使用
func (f *Fetcher) FetchRepository(ctx context.Context, owner, name string) (*domain.RepositoryRecord, error) {
	now := time.Now()
	if f != nil && f.nowFunc != nil {
		now = f.nowFunc()
	}

	var repo *github.Repository
	err := common.Do(ctx, func() error {
		var apiErr error
		repo, _, apiErr = f.client.Repositories.Get(ctx, owner, name)
		return apiErr
	},
		common.WithMaxRetries(3),
		common.WithInitialDelay(time.Second),
	)
	if err != nil {
		return nil, domain.NewFetchError(err)
	}

	record := f.toRecord(repo, now, 7)
	if record == nil {
		return nil, domain.NewFetchError(errors.New("仓库记录缺少身份字段"))
	}
	return record, nil
}

// toRecord 把 GitHub API 的仓库对象归一化为内部记录
// 身份字段不全的记录在这道边界上被丢弃（跳过，不中断批次）
func (f *Fetcher) toRecord(item *github.Repository, now time.Time, windowDays int) *domain.RepositoryRecord {
	if item == nil {
		return nil
	}

	fullName := item.GetFullName()
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 {
		log.Printf("[Fetcher] 跳过无法解析的仓库名: %q", fullName)
		return nil
	}

	record := &domain.RepositoryRecord{
		Owner:         parts[0],
		Name:          parts[1],
		DisplayName:   item.GetName(),
		Description:   item.GetDescription(),
		Language:      item.GetLanguage(),
		Stars:         item.GetStargazersCount(),
		TrendingStars: estimateTrendingStars(item.GetStargazersCount(), item.GetCreatedAt().Time, now, windowDays),
		Topics:        item.Topics,
		URL:           item.GetHTMLURL(),
		CreatedAt:     item.GetCreatedAt().Time,
	}

	if err := record.Validate(); err != nil {
		log.Printf("[Fetcher] 跳过非法记录: %v", err)
		return nil
	}
	return record
}

// estimateTrendingStars 估算趋势窗口内的新增星标
// 搜索 API 不提供增量数据，用 日均星标 × 窗口天数 近似
func estimateTrendingStars(stars int, createdAt, now time.Time, windowDays int) int {
	daysAlive := now.Sub(createdAt).Hours() / 24
	if daysAlive < 1 {
		daysAlive = 1
	}
	estimated := float64(stars) / daysAlive * float64(windowDays)
	if estimated > float64(stars) {
		estimated = float64(stars)
	}
	return int(math.Round(estimated))
}

func windowToDays(window string) int {
	switch window {
	case "daily":
		return 1
	case "monthly":
		return 30
	default: // weekly
		return 7
	}
}
