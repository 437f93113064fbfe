package gmap

import "sort"

// Clone 浅拷贝一个 Map。
// nil 输入返回 nil，保持与原 Map 相同的 nil 语义。
//
// 示例：
//
//	Clone(map[int]int{1: 1})  ⏩ map[int]int{1: 1}（新实例）
//	Clone[int, int](nil)      ⏩ nil
func Clone[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}

	ret := make(map[K]V, len(m))
	for k, v := range m {
		ret[k] = v
	}
	return ret
}

// SortedKeys 返回 Map 所有键的有序切片。
// Go 的 Map 遍历顺序不确定，错误信息等需要可复现输出的场景使用本函数。
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
