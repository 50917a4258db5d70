// Package state 负责跨 tick 的持久化状态：每个产品一个定长中间价窗口，
// 以不透明字符串的形式交还撮合环境，下个 tick 原样传回。
package state

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed 表示 traderData 无法解析为窗口映射。
var ErrMalformed = errors.New("malformed persisted state")

// State 持有 product -> Window。只由引擎使用，不做并发保护。
type State struct {
	size    int
	seeds   map[string]float64
	windows map[string]*Window
}

// New 按种子值为所有已配置产品建立窗口。
func New(size int, seeds map[string]float64) *State {
	s := &State{
		size:    size,
		seeds:   seeds,
		windows: make(map[string]*Window, len(seeds)),
	}
	for product, seed := range seeds {
		s.windows[product] = NewWindow(size, seed)
	}
	return s
}

// Decode 解析上一 tick 的 traderData。空串视为首个 tick。
// 解析失败时返回新建的默认状态以及包装了 ErrMalformed 的错误，调用方可选择继续使用。
func Decode(data string, size int, seeds map[string]float64) (*State, error) {
	s := New(size, seeds)
	if data == "" {
		return s, nil
	}
	var raw map[string][]float64
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return s, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for product, values := range raw {
		seed, ok := seeds[product]
		if !ok {
			if len(values) == 0 {
				continue
			}
			seed = values[0]
		}
		s.windows[product] = windowFrom(values, size, seed)
	}
	return s, nil
}

// Window 返回产品窗口；未见过但配置了种子的产品会被惰性创建。
func (s *State) Window(product string) (*Window, bool) {
	if w, ok := s.windows[product]; ok {
		return w, true
	}
	seed, ok := s.seeds[product]
	if !ok {
		return nil, false
	}
	w := NewWindow(s.size, seed)
	s.windows[product] = w
	return w, true
}

// Encode 序列化为 {"product": [oldest ... newest]}，交还撮合环境时不做截断。
func (s *State) Encode() (string, error) {
	raw := make(map[string][]float64, len(s.windows))
	for p, w := range s.windows {
		raw[p] = w.Values()
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("encode persisted state: %w", err)
	}
	return string(b), nil
}
