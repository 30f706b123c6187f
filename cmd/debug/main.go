package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"money-idea-miner/internal/adapter/generator"
	"money-idea-miner/internal/adapter/github"
	"money-idea-miner/internal/adapter/scorer"
	"money-idea-miner/internal/config"
)

// 调试入口：不连数据库，抓一批热门项目打印评分明细和生成结果
func main() {
	githubToken := os.Getenv("GITHUB_TOKEN")

	ctx := context.Background()

	fetcher := github.NewFetcher(githubToken, nil)
	potentialScorer := scorer.NewPotentialScorer(config.DefaultScoringConfig())
	ideaGenerator := generator.NewIdeaGenerator(config.DefaultGeneratorConfig())

	fmt.Println("📥 正在抓取热门项目...")
	records, err := fetcher.FetchTrending(ctx, "weekly", 10)
	if err != nil {
		log.Fatalf("❌ 抓取失败: %v", err)
	}
	fmt.Printf("✅ 获取到 %d 个项目\n\n", len(records))

	for _, record := range records {
		result := potentialScorer.Score(record)
		fmt.Printf("=== %s (⭐%d, +%d) ===\n", record.FullName(), record.Stars, record.TrendingStars)
		fmt.Printf("潜力分数: %d/100, 方向: %s\n", result.Score, result.Category)
		for _, signal := range result.Signals {
			fmt.Printf("  · %s\n", signal)
		}

		ideas := ideaGenerator.Generate(record, result)
		for _, idea := range ideas {
			fmt.Printf("  💡 [%s] %s (收入 ¥%d-%d)\n", idea.Pathway, idea.Title, idea.Revenue.Min, idea.Revenue.Max)
		}
		fmt.Println()
	}
}
