package util

import (
	"strconv"
)

// ParseUintParam 解析路径参数，0 视为非法
func ParseUintParam(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// IntQuery 解析查询参数，缺省或非法时返回 def
func IntQuery(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
