package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/betbot/goaevo/aevo/client"
	"github.com/betbot/goaevo/aevo/types"
	"github.com/betbot/goaevo/aevo/ws"
	"github.com/betbot/goaevo/internal/journal"
	"github.com/betbot/goaevo/internal/metrics"
	"github.com/betbot/goaevo/pkg/config"
	"github.com/betbot/goaevo/pkg/logger"
	"github.com/betbot/goaevo/pkg/shutdown"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const gracefulShutdownPeriod = 10 * time.Second

func main() {
	var (
		configPath  = flag.String("config", "", "YAML 配置文件路径（可选，环境变量优先）")
		envFile     = flag.String("env-file", ".env", ".env 文件路径（不存在时忽略）")
		asset       = flag.String("asset", "ETH", "启动时查询该标的的市场列表（为空则跳过）")
		channels    = flag.String("channels", "", "额外订阅的频道，逗号分隔，例如 orderbook:ETH-PERP,ticker:ETH:PERPETUAL")
		metricsAddr = flag.String("metrics", "", "debug 服务监听地址，例如 127.0.0.1:6060（覆盖配置）")

		placeOrder = flag.Bool("order", false, "启动后提交一笔限价单")
		instrument = flag.String("instrument", "", "下单合约 ID")
		side       = flag.String("side", "buy", "buy / sell")
		price      = flag.String("price", "", "限价（美元）")
		qty        = flag.String("qty", "", "数量")
		postOnly   = flag.Bool("post-only", true, "只做 maker")
	)
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("加载 %s 失败: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Errorf("加载配置失败: %v", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log); err != nil {
		logrus.Errorf("初始化日志失败: %v", err)
		os.Exit(1)
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	shutdownManager := shutdown.NewManager(logger.WithField("component", "shutdown"))

	clientCfg, err := cfg.ToClientConfig()
	if err != nil {
		logrus.Errorf("解析凭证失败: %v", err)
		os.Exit(1)
	}
	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			logrus.Errorf("打开订单流水失败: %v", err)
			os.Exit(1)
		}
		clientCfg.Recorder = j
		shutdownManager.OnShutdown("journal", func(context.Context) error { return j.Close() })
	}
	c, err := client.NewClient(clientCfg)
	if err != nil {
		logrus.Errorf("创建客户端失败: %v", err)
		os.Exit(1)
	}
	logger.Infof("环境: %s | REST: %s | WS: %s", c.Environment(), c.RestURL(), c.WSURL())

	if *asset != "" {
		reqCtx, cancel := context.WithTimeout(rootCtx, 15*time.Second)
		markets, err := c.GetMarkets(reqCtx, *asset)
		cancel()
		if err != nil {
			logrus.Warnf("查询市场失败: %v", err)
		} else {
			active := 0
			for _, mk := range markets {
				if mk.IsActive {
					active++
				}
			}
			logger.Infof("%s 市场 %d 个（活跃 %d）", strings.ToUpper(*asset), len(markets), active)
		}
	}

	conn, err := c.OpenConnection(nil)
	if err != nil {
		logrus.Errorf("打开实时连接失败: %v", err)
		os.Exit(1)
	}
	shutdownManager.OnShutdown("realtime", func(ctx context.Context) error {
		return conn.Close()
	})

	if cfg.MetricsAddr != "" {
		srv, err := metrics.StartAsync(rootCtx, cfg.MetricsAddr, func() any {
			return gin.H{
				"environment":   c.Environment(),
				"state":         conn.State().String(),
				"session_id":    conn.SessionID(),
				"subscriptions": conn.Subscriptions(),
			}
		})
		if err != nil {
			logrus.Errorf("启动 debug 服务失败: %v", err)
			os.Exit(1)
		}
		logger.Infof("debug 服务: http://%s/status", srv.Addr)
		shutdownManager.OnShutdown("metrics", srv.Shutdown)
	}

	subs := append([]string(nil), cfg.Realtime.Channels...)
	subs = append(subs, splitList(*channels)...)
	if len(subs) > 0 {
		if err := conn.Subscribe(subs...); err != nil {
			logrus.Warnf("订阅失败（重连后会补发）: %v", err)
		}
	}

	go logMessages(rootCtx, conn)
	go logErrors(rootCtx, conn)

	if *placeOrder {
		go func() {
			readyCtx, cancel := context.WithTimeout(rootCtx, 30*time.Second)
			defer cancel()
			if err := conn.WaitReady(readyCtx); err != nil {
				logrus.Warnf("等待连接就绪失败，仍通过 REST 下单: %v", err)
			}
			if err := submitOrder(rootCtx, c, *instrument, *side, *price, *qty, *postOnly); err != nil {
				logrus.Errorf("下单失败: %v", err)
			}
		}()
	}

	logrus.Info("✅ 已启动，按 Ctrl+C 停止")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logrus.Info("收到停止信号，正在关闭...")
	rootCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownPeriod)
	defer shutdownCancel()
	shutdownManager.Shutdown(shutdownCtx)
	logrus.Info("已停止")
}

func logMessages(ctx context.Context, conn *ws.Manager) {
	err := conn.ReadMessages(ctx, func(msg *ws.Message) {
		if msg.IsError() {
			logrus.Warnf("[ws] 错误响应 id=%v: %s", idOf(msg), string(msg.Error))
			return
		}
		if msg.Channel != "" {
			logrus.Debugf("[ws] %s: %d bytes", msg.Channel, len(msg.Data))
			return
		}
		logrus.Infof("[ws] 响应 id=%v: %s", idOf(msg), string(msg.Data))
	})
	if err != nil && ctx.Err() == nil {
		logrus.Warnf("[ws] 读消息结束: %v", err)
	}
}

func logErrors(ctx context.Context, conn *ws.Manager) {
	errs := conn.Errors()
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			logrus.Warnf("[ws] %v", err)
		}
	}
}

func submitOrder(ctx context.Context, c *client.Client, instrument, side, price, qty string, postOnly bool) error {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return &types.ConfigurationError{Field: "price", Err: err}
	}
	q, err := decimal.NewFromString(qty)
	if err != nil {
		return &types.ConfigurationError{Field: "qty", Err: err}
	}
	intent := &types.OrderIntent{
		Instrument: instrument,
		IsBuy:      !strings.EqualFold(side, "sell"),
		LimitPrice: p,
		Quantity:   q,
		PostOnly:   postOnly,
	}

	reqCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	resp, err := c.CreateOrder(reqCtx, intent)
	if err != nil {
		return err
	}
	logger.Infof("订单已提交: id=%s status=%s", resp.OrderID, resp.OrderStatus)
	return nil
}

func idOf(msg *ws.Message) any {
	if msg.ID == nil {
		return "-"
	}
	return *msg.ID
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
