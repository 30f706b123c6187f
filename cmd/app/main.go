package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"money-idea-miner/internal/adapter/feishu"
	"money-idea-miner/internal/adapter/gemini"
	"money-idea-miner/internal/adapter/generator"
	"money-idea-miner/internal/adapter/github"
	"money-idea-miner/internal/adapter/matcher"
	"money-idea-miner/internal/adapter/pool"
	"money-idea-miner/internal/adapter/scorer"
	"money-idea-miner/internal/config"
	"money-idea-miner/internal/domain"
	"money-idea-miner/internal/port"
	"money-idea-miner/internal/service"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	// 1. 命令行参数
	mode := flag.String("mode", "generate", "运行模式: generate (生成灵感) / recommend (重排池内灵感) / analyze (分析单个项目) / search (AI 语义搜索) / status (状态迁移) / revenue (补记收益) / overview (资产池概览)")
	window := flag.String("window", "weekly", "趋势窗口: daily / weekly / monthly")
	limit := flag.Int("limit", 20, "抓取项目数量上限")
	prefsPath := flag.String("prefs", "preferences.yaml", "用户偏好 YAML 文件路径")
	cronSpec := flag.String("cron", "", "定时执行的 cron 表达式，如 '0 9 * * *'，空表示只执行一次")
	top := flag.Int("top", 3, "每轮推送到通知通道的灵感条数")

	repoFlag := flag.String("repo", "", "analyze 模式: owner/name 形式的项目")
	query := flag.String("q", "", "search 模式: 自然语言问题")
	ideaID := flag.String("id", "", "status/revenue 模式: 灵感 ID")
	toStatus := flag.String("to", "", "status 模式: 目标状态 (accepted/executing/monetized/rejected)")
	amount := flag.Int("amount", 0, "status(monetized)/revenue 模式: 收益金额（元）")
	source := flag.String("source", "", "收益来源，如 '闲鱼'")
	notes := flag.String("notes", "", "备注")
	flag.Parse()

	// 2. 加载 .env（不存在也没关系）
	_ = godotenv.Load()

	// 3. 初始化公共依赖 (数据库)
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=123456 dbname=money_ideas port=5432 sslmode=disable TimeZone=Asia/Shanghai"
	}
	assetPool, err := pool.NewPostgresPool(dsn)
	if err != nil {
		log.Fatalf("❌ DB 初始化失败: %v", err)
	}

	// 4. 加载用户偏好
	prefs, err := config.LoadPreferences(*prefsPath)
	if err != nil {
		log.Fatalf("❌ 偏好加载失败: %v", err)
	}

	// 5. 组装流水线
	svc := buildService(assetPool, *top)

	// 6. 模式分流
	switch *mode {
	case "generate":
		if *cronSpec != "" {
			runScheduled(svc, prefs, *window, *limit, *cronSpec)
			return
		}
		runGenerate(svc, prefs, *window, *limit)
	case "recommend":
		runRecommend(svc, prefs)
	case "analyze":
		runAnalyze(svc, prefs, *repoFlag)
	case "search":
		runSearch(svc, *query)
	case "status":
		runStatus(svc, *ideaID, *toStatus, *amount, *source, *notes)
	case "revenue":
		runRevenue(svc, *ideaID, *amount, *source, *notes)
	case "overview":
		runOverview(svc)
	default:
		fmt.Println("❌ 未知模式，请使用 -mode=generate/recommend/analyze/search/status/revenue/overview")
	}
}

// buildService 组装全部适配器
func buildService(assetPool port.AssetPool, notifyTop int) *service.IdeaService {
	githubToken := os.Getenv("GITHUB_TOKEN")
	fetcher := github.NewFetcher(githubToken, nil)

	potentialScorer := scorer.NewPotentialScorer(config.DefaultScoringConfig())
	ideaGenerator := generator.NewIdeaGenerator(config.DefaultGeneratorConfig())
	prefMatcher := matcher.NewPreferenceMatcher(config.DefaultMatchConfig())

	// 通知与 AI 都是可选依赖，未配置时对应功能降级
	var notifier port.Notifier
	if webhook := os.Getenv("FEISHU_WEBHOOK"); webhook != "" {
		notifier = feishu.NewNotifier(webhook)
	}

	var appraiser port.Appraiser
	if geminiKey := os.Getenv("GEMINI_API_KEY"); geminiKey != "" {
		a, err := gemini.NewGeminiAppraiser(context.Background(), geminiKey)
		if err != nil {
			log.Printf("⚠️ AI 初始化失败，语义搜索不可用: %v", err)
		} else {
			appraiser = a
		}
	}

	svc := service.NewIdeaService(fetcher, potentialScorer, ideaGenerator, prefMatcher, assetPool, notifier, appraiser)
	svc.SetNotifyTop(notifyTop)
	return svc
}

// runScheduled 按 cron 表达式定时执行生成周期，优雅退出
func runScheduled(svc *service.IdeaService, prefs domain.UserPreferences, window string, limit int, spec string) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		runGenerate(svc, prefs, window, limit)
	})
	if err != nil {
		log.Fatalf("❌ cron 表达式非法: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("⏰ 定时执行模式已启动: %s\n", spec)
	fmt.Println("按下 Ctrl+C 可以优雅停止程序")

	// 立即执行一次
	runGenerate(svc, prefs, window, limit)

	c.Start()
	<-sigChan
	fmt.Println("\n👋 收到停止信号，正在退出...")
	<-c.Stop().Done()
}

func runGenerate(svc *service.IdeaService, prefs domain.UserPreferences, window string, limit int) {
	// 为整个周期设置超时时间(5分钟)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ideas, err := svc.ExecuteGenerationCycle(ctx, prefs, window, limit)
	if err != nil {
		log.Printf("❌ 生成周期失败: %v", err)
		return
	}
	printIdeas(ideas)
}

func runRecommend(svc *service.IdeaService, prefs domain.UserPreferences) {
	ideas, err := svc.RecommendFromPool(context.Background(), prefs)
	if err != nil {
		log.Fatalf("❌ 读取资产池失败: %v", err)
	}
	if len(ideas) == 0 {
		fmt.Println("📭 没有匹配当前偏好的灵感。先运行 -mode=generate 抓取一些项目！")
		return
	}
	printIdeas(ideas)
}

func runAnalyze(svc *service.IdeaService, prefs domain.UserPreferences, repo string) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		fmt.Println("⚠️ 请用 -repo=owner/name 指定要分析的项目")
		return
	}

	result, ideas, err := svc.AnalyzeProject(context.Background(), parts[0], parts[1], prefs)
	if err != nil {
		log.Fatalf("❌ 分析失败: %v", err)
	}

	fmt.Printf("\n📊 %s 变现潜力: %d/100 (方向: %s)\n", repo, result.Score, result.Category)
	for _, signal := range result.Signals {
		fmt.Printf("   · %s\n", signal)
	}
	printIdeas(ideas)
}

func runSearch(svc *service.IdeaService, query string) {
	if query == "" {
		fmt.Println("⚠️ 请输入你的问题，用大白话就行。")
		fmt.Println("例如: -q '我预算500块，每天只有2小时，该做哪个？'")
		return
	}

	fmt.Println("🤖 正在读取资产池，并进行 AI 语义分析...")
	answer, err := svc.SemanticSearch(context.Background(), query)
	if err != nil {
		log.Fatalf("❌ AI 分析失败: %v", err)
	}

	fmt.Println("\n================ [ 智能搜索结果 ] ================")
	fmt.Println(answer)
	fmt.Println("==================================================")
}

func runStatus(svc *service.IdeaService, ideaID, to string, amount int, source, notes string) {
	if ideaID == "" || to == "" {
		fmt.Println("⚠️ 请用 -id=idea-xxx -to=accepted/executing/monetized/rejected 指定迁移")
		return
	}

	var realized *domain.RevenueRecord
	if domain.Status(to) == domain.StatusMonetized && amount > 0 {
		realized = &domain.RevenueRecord{Amount: amount, Source: source, Notes: notes}
	}

	if err := svc.UpdateIdeaStatus(context.Background(), ideaID, domain.Status(to), realized); err != nil {
		log.Fatalf("❌ 状态迁移失败: %v", err)
	}
	fmt.Printf("✅ 灵感 %s 已迁移到 %s\n", ideaID, to)
}

func runRevenue(svc *service.IdeaService, ideaID string, amount int, source, notes string) {
	if ideaID == "" || amount <= 0 {
		fmt.Println("⚠️ 请用 -id=idea-xxx -amount=299 指定收益")
		return
	}

	if err := svc.RecordRevenue(context.Background(), ideaID, amount, source, notes); err != nil {
		log.Fatalf("❌ 收益记录失败: %v", err)
	}
	fmt.Printf("✅ 已为灵感 %s 记录收益 ¥%d\n", ideaID, amount)
}

func runOverview(svc *service.IdeaService) {
	overview, err := svc.PoolOverview(context.Background())
	if err != nil {
		log.Fatalf("❌ 读取概览失败: %v", err)
	}

	fmt.Println("\n=== 资产池概览 ===")
	fmt.Printf("灵感总数: %d\n", overview.Total)
	for _, status := range []domain.Status{
		domain.StatusProposed, domain.StatusAccepted, domain.StatusExecuting,
		domain.StatusMonetized, domain.StatusRejected,
	} {
		fmt.Printf("  %-10s %d\n", status, overview.ByStatus[status])
	}
	fmt.Printf("累计收益: ¥%d (%d 笔)\n", overview.TotalRevenue, overview.RevenueCount)
}

// printIdeas 格式化输出灵感列表
func printIdeas(ideas []*domain.Idea) {
	if len(ideas) == 0 {
		return
	}

	fmt.Println("\n============================================================")
	fmt.Println("💰 今日赚钱灵感")
	fmt.Println("============================================================")
	for i, idea := range ideas {
		fmt.Printf("【灵感 #%d】%s (%s)\n", i+1, idea.Title, idea.ID)
		fmt.Printf("  描述: %s\n", idea.Description)
		fmt.Printf("  目标用户: %s\n", strings.Join(idea.Audience, "、"))
		fmt.Printf("  启动成本: ¥%d - ¥%d\n", idea.Cost.Min, idea.Cost.Max)
		fmt.Printf("  预期月收入: ¥%d - ¥%d\n", idea.Revenue.Min, idea.Revenue.Max)
		fmt.Printf("  所需时间: %.1f - %.1f 天\n", idea.Days.Min, idea.Days.Max)
		fmt.Printf("  🔗 %s\n\n", idea.SourceURL)
	}
}
