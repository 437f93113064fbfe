package generic

import "reflect"

// TypeOf 返回 T 的 reflect.Type。
// 相比 reflect.TypeOf(v)，可以正确处理接口类型与 nil 值。
//
// 示例:
//
//	TypeOf[int]()     // reflect.TypeOf(int)
//	TypeOf[*int]()    // reflect.TypeOf(*int)
//	TypeOf[error]()   // error 接口本身，而非具体实现
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
