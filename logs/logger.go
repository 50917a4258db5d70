// Package logs 实现每个 tick 一条的诊断记录：tick 内累积自由文本，
// 结束时把输入快照、输出订单、持久化状态与日志编码成一条长度受限的 JSON 行。
package logs

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"shadow-mm/market"
	"shadow-mm/order"
)

// DefaultMaxLength 是单条诊断记录的字符上限。
const DefaultMaxLength = 3750

// Logger 是诊断缓冲区，由引擎持有，每次 Flush 后清空。
type Logger struct {
	buf       strings.Builder
	maxLength int
	out       io.Writer
}

// New 创建 Logger；out 为 nil 时只返回记录不输出。
func New(out io.Writer, maxLength int) *Logger {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Logger{out: out, maxLength: maxLength}
}

// Print 以空格连接各参数并换行。
func (l *Logger) Print(objects ...any) {
	parts := make([]string, len(objects))
	for i, o := range objects {
		parts[i] = fmt.Sprint(o)
	}
	l.buf.WriteString(strings.Join(parts, " "))
	l.buf.WriteByte('\n')
}

// Printf 追加一行格式化文本。
func (l *Logger) Printf(format string, args ...any) {
	l.buf.WriteString(fmt.Sprintf(format, args...))
	l.buf.WriteByte('\n')
}

// Logs 返回当前缓冲内容。
func (l *Logger) Logs() string { return l.buf.String() }

func (l *Logger) Reset() { l.buf.Reset() }


// Flush 生成本 tick 的诊断记录并写出，随后清空缓冲区。
// 先用三个可截断字段为空串的骨架测出 base 长度，剩余预算三等分给
// 上一 tick 的 traderData、本 tick 输出的 traderData 和日志缓冲。
// 截断只作用于记录本身，交还撮合环境的 traderData 不受影响。
func (l *Logger) Flush(snap *market.Snapshot, orders map[string][]order.Order, conversions int, traderData string) (string, error) {
	defer l.Reset()
	if snap == nil {
		snap = &market.Snapshot{}
	}

	base, err := encodeRecord(snap, orders, conversions, "", "", "")
	if err != nil {
		return "", err
	}
	budget := (l.maxLength - utf8.RuneCountInString(base)) / 3
	if budget < 0 {
		budget = 0
	}

	line, err := encodeRecord(snap, orders, conversions,
		truncateEncoded(snap.TraderData, budget),
		truncateEncoded(traderData, budget),
		truncateEncoded(l.Logs(), budget),
	)
	if err != nil {
		return "", err
	}
	if l.out != nil {
		if _, err := io.WriteString(l.out, line+"\n"); err != nil {
			return line, fmt.Errorf("write diagnostic record: %w", err)
		}
	}
	return line, nil
}

func encodeRecord(snap *market.Snapshot, orders map[string][]order.Order, conversions int, traderIn, traderOut, logs string) (string, error) {
	return toJSON([]any{
		CompressState(snap, traderIn),
		CompressOrders(orders),
		conversions,
		traderOut,
		logs,
	})
}
