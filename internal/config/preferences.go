package config

import (
	"fmt"
	"os"

	"money-idea-miner/internal/domain"

	"gopkg.in/yaml.v3"
)

// DefaultPreferences 默认用户偏好，未提供偏好文件时使用
func DefaultPreferences() domain.UserPreferences {
	return domain.UserPreferences{
		Budget:      1000,
		HoursPerDay: 2,
		Skills:      []string{"Python", "AI", "Web"},
		Interests:   []string{"AI工具", "自动化", "SaaS"},
	}
}

// LoadPreferences 从 YAML 文件读取用户偏好
// 文件不存在时返回默认偏好，解析失败才报错
func LoadPreferences(path string) (domain.UserPreferences, error) {
	prefs := DefaultPreferences()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("读取偏好文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return DefaultPreferences(), fmt.Errorf("解析偏好文件失败: %w", err)
	}

	if prefs.Budget < 0 {
		prefs.Budget = 0
	}
	if prefs.HoursPerDay <= 0 {
		prefs.HoursPerDay = DefaultPreferences().HoursPerDay
	}

	return prefs, nil
}
