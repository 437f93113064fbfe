package compose

import (
	"context"
	"fmt"
	"reflect"

	"github.com/favbox/flowgraph/internal/generic"
)

// Callable 函数节点包装的可调用能力。
//
// 入参按节点声明的输入端口顺序排列，返回值按声明的输出端口顺序分发。
// 返回值个数与声明的输出端口数不一致时，执行期报 OutputArityMismatchError。
type Callable interface {
	Call(ctx context.Context, args []any) ([]any, error)
}

// CallableFunc 将原始函数适配为 Callable。
type CallableFunc func(ctx context.Context, args []any) ([]any, error)

// Call 实现 Callable 接口。
func (f CallableFunc) Call(ctx context.Context, args []any) ([]any, error) {
	return f(ctx, args)
}

// newUnexpectedInputTypeErr 创建意外输入类型错误，类型断言失败的专用错误。
func newUnexpectedInputTypeErr(idx int, expected reflect.Type, got any) error {
	return fmt.Errorf("unexpected input type for argument %d. expected: %v, got: %v",
		idx, expected, reflect.TypeOf(got))
}

// newArgCountErr 创建入参个数错误。
func newArgCountErr(want, got int) error {
	return fmt.Errorf("unexpected argument count. expected: %d, got: %d", want, got)
}

// arg 按声明类型提取第 i 个入参。
func arg[T any](args []any, i int) (T, error) {
	v, ok := args[i].(T)
	if !ok {
		var zero T
		return zero, newUnexpectedInputTypeErr(i, generic.TypeOf[T](), args[i])
	}
	return v, nil
}

// Lambda1 将 1 入参 1 出参的类型化函数包装为 Callable。
// 入参类型在调用时断言检查，不匹配则调用失败。
func Lambda1[A, R any](fn func(ctx context.Context, a A) (R, error)) Callable {
	return CallableFunc(func(ctx context.Context, args []any) ([]any, error) {
		if len(args) != 1 {
			return nil, newArgCountErr(1, len(args))
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		r, err := fn(ctx, a)
		if err != nil {
			return nil, err
		}
		return []any{r}, nil
	})
}

// Lambda2 将 2 入参 1 出参的类型化函数包装为 Callable。
func Lambda2[A, B, R any](fn func(ctx context.Context, a A, b B) (R, error)) Callable {
	return CallableFunc(func(ctx context.Context, args []any) ([]any, error) {
		if len(args) != 2 {
			return nil, newArgCountErr(2, len(args))
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		r, err := fn(ctx, a, b)
		if err != nil {
			return nil, err
		}
		return []any{r}, nil
	})
}

// Lambda3 将 3 入参 1 出参的类型化函数包装为 Callable。
func Lambda3[A, B, C, R any](fn func(ctx context.Context, a A, b B, c C) (R, error)) Callable {
	return CallableFunc(func(ctx context.Context, args []any) ([]any, error) {
		if len(args) != 3 {
			return nil, newArgCountErr(3, len(args))
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		c, err := arg[C](args, 2)
		if err != nil {
			return nil, err
		}
		r, err := fn(ctx, a, b, c)
		if err != nil {
			return nil, err
		}
		return []any{r}, nil
	})
}

// Lambda1x2 将 1 入参 2 出参的类型化函数包装为 Callable。
// 两个返回值按声明的输出端口顺序位置分发。
func Lambda1x2[A, R1, R2 any](fn func(ctx context.Context, a A) (R1, R2, error)) Callable {
	return CallableFunc(func(ctx context.Context, args []any) ([]any, error) {
		if len(args) != 1 {
			return nil, newArgCountErr(1, len(args))
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		r1, r2, err := fn(ctx, a)
		if err != nil {
			return nil, err
		}
		return []any{r1, r2}, nil
	})
}

// Lambda2x2 将 2 入参 2 出参的类型化函数包装为 Callable。
func Lambda2x2[A, B, R1, R2 any](fn func(ctx context.Context, a A, b B) (R1, R2, error)) Callable {
	return CallableFunc(func(ctx context.Context, args []any) ([]any, error) {
		if len(args) != 2 {
			return nil, newArgCountErr(2, len(args))
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		r1, r2, err := fn(ctx, a, b)
		if err != nil {
			return nil, err
		}
		return []any{r1, r2}, nil
	})
}
