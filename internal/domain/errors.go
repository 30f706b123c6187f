package domain

import "fmt"

// 核心错误用具体类型表达，调用方通过 errors.As 区分处理策略：
//   - FetchError: 抓取失败，整次运行中止
//   - DuplicateIdeaError: 防重命中，编排器记日志后跳过
//   - NotFoundError / InvalidTransitionError: 状态更新误用，返回给调用方
//   - ValidationError: 单条记录非法，跳过该条继续批次

// FetchError 外部抓取失败，统一覆盖认证/限流/网络/解析错误
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("抓取 trending 项目失败: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError 包装一次失败的抓取
func NewFetchError(err error) error {
	return &FetchError{Err: err}
}

// DuplicateIdeaError 资产池中已存在同 ID 的非 rejected 灵感
type DuplicateIdeaError struct {
	IdeaID string
}

func (e *DuplicateIdeaError) Error() string {
	return fmt.Sprintf("灵感 %s 已存在于资产池", e.IdeaID)
}

// NotFoundError 按 ID 查找灵感未命中
type NotFoundError struct {
	IdeaID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("灵感 %s 不存在", e.IdeaID)
}

// InvalidTransitionError 请求的状态迁移不在允许的边集内
type InvalidTransitionError struct {
	IdeaID string
	From   Status
	To     Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("灵感 %s 不允许从 %s 迁移到 %s", e.IdeaID, e.From, e.To)
}

// ValidationError 抓取边界处发现的非法记录
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError 创建校验错误
func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}
