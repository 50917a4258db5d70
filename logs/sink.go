package logs

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SinkConfig 描述诊断记录的输出位置。
type SinkConfig struct {
	Output     string // stdout, stderr, discard 或文件路径
	MaxSize    int    // 文件轮转：单文件 MB
	MaxBackups int
	MaxAge     int // 天
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// OpenSink 打开诊断输出；文件输出按大小轮转。
func OpenSink(cfg SinkConfig) io.WriteCloser {
	switch cfg.Output {
	case "", "stdout":
		return nopCloser{os.Stdout}
	case "stderr":
		return nopCloser{os.Stderr}
	case "discard":
		return nopCloser{io.Discard}
	default:
		return &lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		}
	}
}
