package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shadow-mm/config"
	"shadow-mm/internal/container"
	"shadow-mm/internal/engine"
	"shadow-mm/market"
)

// ticker 是交易循环需要的引擎能力
type ticker interface {
	Run(snap *market.Snapshot) (engine.Result, error)
}

// 标准输入每行一个快照，标准输出每行一个结果。stdout 只承载结果，
// 诊断记录和运行日志若配置为 stdout 会被改写到 stderr。
func main() {
	cfgPath := flag.String("config", "", "配置文件路径，留空使用内置默认值")
	envPath := flag.String("env", "", ".env 文件路径，留空读取当前目录 .env")
	chain := flag.Bool("chain", false, "输入缺少 traderData 时使用上一个 tick 的输出")
	flag.Parse()

	loadEnv(*envPath)

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	cfg, moved := reserveStdout(cfg)

	c, err := container.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	defer c.Close()
	lg := c.Logger()
	for _, what := range moved {
		lg.Warn("stdout is reserved for results, redirected to stderr", zap.String("output", what))
	}

	if err := run(os.Stdin, os.Stdout, c.Engine(), *chain); err != nil {
		lg.Error("trader loop stopped", zap.Error(err))
	}
}

// reserveStdout 把指向 stdout 的诊断输出和日志输出改到 stderr，返回被改写的项。
func reserveStdout(cfg config.AppConfig) (config.AppConfig, []string) {
	var moved []string
	if cfg.Diagnostics.Output == "" || cfg.Diagnostics.Output == "stdout" {
		cfg.Diagnostics.Output = "stderr"
		moved = append(moved, "diagnostics")
	}

	outputs := make([]string, 0, len(cfg.Logging.Outputs))
	hasStderr := false
	for _, o := range cfg.Logging.Outputs {
		if o == "stderr" {
			hasStderr = true
		}
	}
	for _, o := range cfg.Logging.Outputs {
		if o != "stdout" {
			outputs = append(outputs, o)
			continue
		}
		moved = append(moved, "logging")
		if !hasStderr {
			outputs = append(outputs, "stderr")
			hasStderr = true
		}
	}
	cfg.Logging.Outputs = outputs
	return cfg, moved
}

// run 逐个解码快照、执行 tick 并把结果按行写出，输入结束时返回 nil。
func run(in io.Reader, w io.Writer, eng ticker, chain bool) error {
	dec := json.NewDecoder(bufio.NewReaderSize(in, 1<<20))
	out := bufio.NewWriter(w)
	defer out.Flush()
	enc := json.NewEncoder(out)

	var last string
	for {
		var snap market.Snapshot
		if err := dec.Decode(&snap); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode snapshot: %w", err)
		}
		if chain && snap.TraderData == "" {
			snap.TraderData = last
		}
		res, err := eng.Run(&snap)
		if err != nil {
			return fmt.Errorf("tick %d: %w", snap.Timestamp, err)
		}
		last = res.TraderData
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		if err := out.Flush(); err != nil {
			return fmt.Errorf("flush result: %w", err)
		}
	}
}

func loadEnv(path string) {
	if path != "" {
		_ = godotenv.Load(path)
		return
	}
	_ = godotenv.Load() // .env 可选
}
