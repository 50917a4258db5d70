package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"

	"shadow-mm/config"
	"shadow-mm/internal/container"
	"shadow-mm/sim"
)

// 离线回放快照文件，输出成交、仓位与盯市 P&L 报告。
func main() {
	cfgPath := flag.String("config", "", "配置文件路径，留空使用内置默认值")
	input := flag.String("input", "", "快照 JSONL 文件，留空读取标准输入")
	diagnostics := flag.String("diagnostics", "discard", "诊断记录输出：stdout, stderr, discard 或文件路径")
	strategyName := flag.String("strategy", "", "覆盖配置中的策略")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	cfg.Diagnostics.Output = *diagnostics
	if *strategyName != "" {
		cfg.Strategy = *strategyName
	}

	c, err := container.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	defer c.Close()

	var r io.Reader = os.Stdin
	if *input != "" {
		f, err := os.Open(*input)
		if err != nil {
			log.Fatalf("打开输入失败: %v", err)
		}
		defer f.Close()
		r = f
	}
	snaps, err := sim.ReadSnapshots(r)
	if err != nil {
		log.Fatalf("读取快照失败: %v", err)
	}

	runner, err := sim.NewRunner(c.Engine(), sim.Config{MaxPosition: cfg.MaxPosition, SelfID: cfg.SelfID})
	if err != nil {
		log.Fatalf("初始化回放失败: %v", err)
	}
	report, err := runner.Run(snaps)
	if err != nil {
		log.Printf("回放中断: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatalf("输出报告失败: %v", err)
	}
}
