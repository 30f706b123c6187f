package matcher

import (
	"sort"
	"strings"

	"money-idea-miner/internal/config"
	"money-idea-miner/internal/domain"
)

// PreferenceMatcher 实现了 port.Matcher 接口
// 纯函数：过滤 + 排序，不修改入参
type PreferenceMatcher struct {
	cfg config.MatchConfig
}

// NewPreferenceMatcher 创建匹配器实例
func NewPreferenceMatcher(cfg config.MatchConfig) *PreferenceMatcher {
	return &PreferenceMatcher{cfg: cfg}
}

// Match 按用户偏好过滤并排序灵感
// 过滤规则:
//  1. 终态灵感（monetized/rejected）不再推荐
//  2. 启动成本下限超过预算的排除
//  3. 路径所需每日投入超过用户可用时间的排除
//
// 排序是显式平局判定的全序:
// 亲和度降序 → 收入中点降序 → 创建时间升序 → ID 升序
func (m *PreferenceMatcher) Match(ideas []*domain.Idea, prefs domain.UserPreferences) []*domain.Idea {
	userTags := lowerTagSet(append(append([]string(nil), prefs.Interests...), prefs.Skills...))

	type ranked struct {
		idea     *domain.Idea
		affinity float64
	}

	kept := make([]ranked, 0, len(ideas))
	for _, idea := range ideas {
		if idea.Status.Terminal() {
			continue
		}
		if idea.Cost.Min > prefs.Budget {
			continue
		}
		if m.hoursNeeded(idea.Pathway) > prefs.HoursPerDay {
			continue
		}
		kept = append(kept, ranked{idea: idea, affinity: affinity(idea.Audience, userTags)})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.affinity != b.affinity {
			return a.affinity > b.affinity
		}
		if am, bm := a.idea.Revenue.Mid(), b.idea.Revenue.Mid(); am != bm {
			return am > bm
		}
		if !a.idea.CreatedAt.Equal(b.idea.CreatedAt) {
			return a.idea.CreatedAt.Before(b.idea.CreatedAt)
		}
		return a.idea.ID < b.idea.ID
	})

	result := make([]*domain.Idea, len(kept))
	for i, r := range kept {
		result[i] = r.idea
	}
	return result
}

// hoursNeeded 路径默认需要的每日投入小时数
func (m *PreferenceMatcher) hoursNeeded(pathway domain.Pathway) float64 {
	if h, ok := m.cfg.HoursPerDay[pathway]; ok {
		return h
	}
	return m.cfg.DefaultHoursPerDay
}

// affinity 亲和度 = |受众标签 ∩ (兴趣 ∪ 技能)| / |受众标签|，归一化到 [0,1]
// 标签比较不区分大小写
func affinity(audience []string, userTags map[string]bool) float64 {
	if len(audience) == 0 {
		return 0
	}
	hits := 0
	for _, tag := range audience {
		if userTags[strings.ToLower(tag)] {
			hits++
		}
	}
	return float64(hits) / float64(len(audience))
}

func lowerTagSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		set[strings.ToLower(tag)] = true
	}
	return set
}
