package safe

import "fmt"

// panicErr 携带 panic 信息与捕获时堆栈的错误类型。
// 用户回调触发的 panic 经由它转换为普通 error 向上传播。
type panicErr struct {
	info  any
	stack []byte
}

func (p *panicErr) Error() string {
	return fmt.Sprintf("panic error: %v, \nstack: %s", p.info, string(p.stack))
}

// NewPanicErr 将 recover() 捕获的 panic 信息与 debug.Stack() 的堆栈
// 包装为 error，便于完整打印定位。
func NewPanicErr(info any, stack []byte) error {
	return &panicErr{
		info:  info,
		stack: stack,
	}
}
