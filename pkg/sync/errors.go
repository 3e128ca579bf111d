package sync

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// FatalError 致命错误：中止整个运行（类目索引构建失败、认证失败、租户读取失败）
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// WrapFatal 把底层错误标记为致命
func WrapFatal(err error, message string) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: errors.Wrap(err, message)}
}

// IsFatal 判断错误是否应当中止运行
func IsFatal(err error) bool {
	var fe *FatalError
	return stderrors.As(err, &fe)
}

// ProductError 单个商品处理失败：记录后跳过该商品，运行继续
type ProductError struct {
	ProductCode string
	Err         error
}

func (e *ProductError) Error() string {
	return "商品 " + e.ProductCode + " 处理失败: " + e.Err.Error()
}
func (e *ProductError) Unwrap() error { return e.Err }

// WriteError 单次回写失败：记录后放弃该次写入，不重试、不中止运行
type WriteError struct {
	ProductCode string
	Err         error
}

func (e *WriteError) Error() string {
	return "商品 " + e.ProductCode + " 回写失败: " + e.Err.Error()
}
func (e *WriteError) Unwrap() error { return e.Err }
