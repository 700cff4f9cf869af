package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/betbot/goaevo/aevo/client"
	"github.com/betbot/goaevo/aevo/ws"
	"github.com/betbot/goaevo/pkg/config"
	"github.com/betbot/goaevo/pkg/logger"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	orderbookDepth = 5 // 买五、卖五
	staleAfter     = 60 * time.Second
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238"))

	bidStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")) // 绿色

	askStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")) // 红色

	priceStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

// model 是应用程序的状态
type model struct {
	instrument string

	bids      []orderLevel
	asks      []orderLevel
	updatedAt time.Time

	markPrice   string
	indexPrice  string
	fundingRate string

	conn    *ws.Manager
	lastErr error

	ctx    context.Context
	cancel context.CancelFunc
}

// tickMsg 定时器消息
type tickMsg time.Time

// wsMsg 收到的频道消息
type wsMsg struct{ msg *ws.Message }

// wsErrMsg 连接错误
type wsErrMsg struct{ err error }

// closedMsg 消息通道已关闭
type closedMsg struct{}

func initialModel(conn *ws.Manager, instrument string) model {
	ctx, cancel := context.WithCancel(context.Background())
	return model{
		instrument:  instrument,
		conn:        conn,
		markPrice:   "N/A",
		indexPrice:  "N/A",
		fundingRate: "N/A",
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		waitMessageCmd(m.ctx, m.conn),
		waitErrorCmd(m.ctx, m.conn),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			return m, tea.Quit
		}

	case tickMsg:
		return m, tickCmd()

	case wsMsg:
		m.apply(msg.msg)
		return m, waitMessageCmd(m.ctx, m.conn)

	case wsErrMsg:
		m.lastErr = msg.err
		return m, waitErrorCmd(m.ctx, m.conn)

	case closedMsg:
		return m, nil
	}
	return m, nil
}

// apply 按频道更新状态
func (m *model) apply(msg *ws.Message) {
	if msg == nil || len(msg.Data) == 0 {
		return
	}
	switch channelKind(msg.Channel) {
	case "orderbook":
		b, err := parseBook(msg.Data)
		if err != nil {
			logrus.Warnf("解析 orderbook 失败: %v", err)
			return
		}
		// 只展示全量快照；增量合并不在这里做
		if b.Type != "" && b.Type != "snapshot" {
			return
		}
		m.bids = toLevels(b.Bids)
		m.asks = toLevels(b.Asks)
		m.updatedAt = time.Now()
	case "ticker":
		t, err := parseTicker(msg.Data)
		if err != nil {
			logrus.Warnf("解析 ticker 失败: %v", err)
			return
		}
		for _, e := range t.Tickers {
			if e.InstrumentName != m.instrument {
				continue
			}
			m.markPrice = e.Mark.Price
			m.indexPrice = e.IndexPrice
			m.fundingRate = e.FundingRate
		}
	}
}

func (m model) View() string {
	var s strings.Builder

	statusInfo := "等待数据..."
	if !m.updatedAt.IsZero() {
		age := time.Since(m.updatedAt)
		if age < staleAfter {
			statusInfo = fmt.Sprintf("数据更新: %v前", age.Round(time.Second))
		} else {
			statusInfo = fmt.Sprintf("数据过期: %v前", age.Round(time.Second))
		}
	}

	header := fmt.Sprintf("%s | 连接: %s | 标记价: %s | 指数价: %s | 资金费率: %s | %s",
		m.instrument, m.conn.State(), m.markPrice, m.indexPrice, m.fundingRate, statusInfo)
	s.WriteString(headerStyle.Render(header))
	s.WriteString("\n\n")

	s.WriteString(renderOrderbook(m.instrument, m.bids, m.asks))
	s.WriteString("\n\n")

	if m.lastErr != nil {
		s.WriteString(errStyle.Render(fmt.Sprintf("最近错误: %v", m.lastErr)))
		s.WriteString("\n")
	}
	s.WriteString("按 q 退出")
	return s.String()
}

func renderOrderbook(title string, bids, asks []orderLevel) string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	// 卖单从高到低显示，最优卖价贴近中间价
	s.WriteString(askStyle.Render("卖单 (Asks)"))
	s.WriteString("\n")
	if len(asks) > 0 {
		n := len(asks)
		if n > orderbookDepth {
			n = orderbookDepth
		}
		for i := n - 1; i >= 0; i-- {
			s.WriteString(fmt.Sprintf("  %12s  %10s\n", asks[i].Price.StringFixed(2), asks[i].Size.StringFixed(4)))
		}
	} else {
		s.WriteString("  --\n")
	}

	s.WriteString("\n")
	if mid, ok := midPrice(bids, asks); ok {
		s.WriteString(priceStyle.Render(fmt.Sprintf("中间价: %s", mid.StringFixed(2))))
		s.WriteString("\n")
	} else {
		s.WriteString("中间价: --\n")
	}
	s.WriteString("\n")

	s.WriteString(bidStyle.Render("买单 (Bids)"))
	s.WriteString("\n")
	if len(bids) > 0 {
		for i := 0; i < len(bids) && i < orderbookDepth; i++ {
			s.WriteString(fmt.Sprintf("  %12s  %10s\n", bids[i].Price.StringFixed(2), bids[i].Size.StringFixed(4)))
		}
	} else {
		s.WriteString("  --\n")
	}

	return borderStyle.Render(s.String())
}

// Commands

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitMessageCmd(ctx context.Context, conn *ws.Manager) tea.Cmd {
	ch := conn.Messages()
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return closedMsg{}
		case msg, ok := <-ch:
			if !ok {
				return closedMsg{}
			}
			return wsMsg{msg: msg}
		}
	}
}

func waitErrorCmd(ctx context.Context, conn *ws.Manager) tea.Cmd {
	ch := conn.Errors()
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return closedMsg{}
		case err, ok := <-ch:
			if !ok {
				return closedMsg{}
			}
			return wsErrMsg{err: err}
		}
	}
}

func main() {
	configPath := flag.String("config", "", "YAML 配置文件路径（可选）")
	instrument := flag.String("instrument", "ETH-PERP", "合约名称")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "加载配置失败:", err)
		os.Exit(1)
	}

	// 日志只写文件，避免干扰 TUI
	logCfg := cfg.Log
	if logCfg.OutputFile == "" {
		logCfg.OutputFile = "logs/ticker-tui.log"
	}
	if err := logger.InitFileOnly(logCfg); err != nil {
		fmt.Fprintln(os.Stderr, "初始化日志失败:", err)
		os.Exit(1)
	}

	clientCfg, err := cfg.ToClientConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "解析配置失败:", err)
		os.Exit(1)
	}
	c, err := client.NewClient(clientCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "创建客户端失败:", err)
		os.Exit(1)
	}

	conn, err := c.OpenConnection(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "连接失败:", err)
		os.Exit(1)
	}
	defer conn.Close()

	asset := strings.SplitN(*instrument, "-", 2)[0]
	if err := conn.Subscribe("orderbook:"+*instrument, "ticker:"+asset+":PERPETUAL"); err != nil {
		logrus.Warnf("订阅失败: %v", err)
	}

	p := tea.NewProgram(initialModel(conn, *instrument), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "运行程序失败:", err)
		os.Exit(1)
	}
}
