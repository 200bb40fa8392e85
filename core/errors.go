package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 错误分层（与推荐引擎的失败语义对应）：
//   - NOT_FOUND / INSUFFICIENT_DATA / COMPUTATION：本地恢复，走默认值或冷启动兜底
//   - STORAGE / INTERNAL_ERROR：在组合层记一次日志与异常计数后向调用方透出
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "STORAGE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "cf", "service"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound         = "NOT_FOUND"          // 用户/法案不存在
	ErrorCodeInsufficientData = "INSUFFICIENT_DATA"  // 交互数据不足，触发冷启动兜底
	ErrorCodeStorage          = "STORAGE"            // 存储读写失败，中止当前请求
	ErrorCodeComputation      = "COMPUTATION"        // 计算异常（空矩阵、零范数等）
	ErrorCodeInvalidInput     = "INVALID_INPUT"      // 输入无效
	ErrorCodeInternalError    = "INTERNAL_ERROR"     // 对外的不透明内部错误
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleCF      = "cf"      // 协同过滤模块
	ModuleRecall  = "recall"  // 召回模块
	ModuleVector  = "vector"  // 向量模块
	ModuleService = "service" // 服务模块
)

// ErrInternal 是组合边界对外透出的不透明错误；内部细节只进日志与异常计数。
var ErrInternal = NewDomainError(ModuleService, ErrorCodeInternalError, "recommendation failed")

func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsInsufficientData 检查错误是否为 INSUFFICIENT_DATA
func IsInsufficientData(err error) bool { return hasCode(err, ErrorCodeInsufficientData) }

// IsStorage 检查错误是否为 STORAGE
func IsStorage(err error) bool { return hasCode(err, ErrorCodeStorage) }

// IsComputation 检查错误是否为 COMPUTATION
func IsComputation(err error) bool { return hasCode(err, ErrorCodeComputation) }

// IsInternal 检查错误是否为对外透出的 INTERNAL_ERROR
func IsInternal(err error) bool { return hasCode(err, ErrorCodeInternalError) }
