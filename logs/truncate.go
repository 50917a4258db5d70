package logs

import "unicode/utf8"

const ellipsis = "..."

// Truncate 保证结果不超过 max 个字符：未超长时原样返回，
// 否则截断并以 "..." 结尾，长度恰为 max；max < 3 时返回空串。
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max < len(ellipsis) {
		return ""
	}
	r := []rune(s)
	return string(r[:max-len(ellipsis)]) + ellipsis
}

// truncateEncoded 与 Truncate 相同，但按 JSON 编码后的长度计算（\n、引号等转义占两个字符），
// 这样截断后的字段写进记录时不会超出预算。
func truncateEncoded(s string, max int) string {
	if encodedLen(s) <= max {
		return s
	}
	if max < len(ellipsis) {
		return ""
	}
	r := []rune(s)
	lo, hi := 0, len(r)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if encodedLen(string(r[:mid]))+len(ellipsis) <= max {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return string(r[:lo]) + ellipsis
}

// encodedLen 返回 s 编码为 JSON 字符串后去掉两侧引号的字符数。
func encodedLen(s string) int {
	enc, err := toJSON(s)
	if err != nil {
		return utf8.RuneCountInString(s)
	}
	return utf8.RuneCountInString(enc) - 2
}
