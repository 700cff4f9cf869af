package shutdown

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Handler 关闭处理函数
type Handler func(ctx context.Context) error

type namedHandler struct {
	name string
	fn   Handler
}

// Manager 优雅关闭管理器
//
// 回调按注册的逆序串行执行：先关实时连接，再关 metrics、日志等依赖。
type Manager struct {
	mu        sync.Mutex
	callbacks []namedHandler
	done      bool
	logger    *logrus.Entry
}

// NewManager 创建新的关闭管理器
func NewManager(logger *logrus.Entry) *Manager {
	if logger == nil {
		logger = logrus.WithField("component", "shutdown")
	}
	return &Manager{logger: logger}
}

// OnShutdown 注册关闭回调
func (m *Manager) OnShutdown(name string, handler Handler) {
	if handler == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, namedHandler{name: name, fn: handler})
}

// Shutdown 执行所有关闭回调（阻塞调用，只执行一次）
// ctx 应该带超时，超时后剩余回调跳过
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return
	}
	m.done = true
	callbacks := m.callbacks
	m.callbacks = nil
	m.mu.Unlock()

	if len(callbacks) == 0 {
		m.logger.Info("没有注册的关闭回调")
		return
	}
	m.logger.Infof("开始优雅关闭，共 %d 个回调", len(callbacks))

	for i := len(callbacks) - 1; i >= 0; i-- {
		cb := callbacks[i]
		if err := ctx.Err(); err != nil {
			m.logger.Warnf("关闭超时，跳过 %s: %v", cb.name, err)
			continue
		}
		if err := cb.fn(ctx); err != nil {
			m.logger.Errorf("关闭 %s 失败: %v", cb.name, err)
			continue
		}
		m.logger.Debugf("已关闭 %s", cb.name)
	}
	m.logger.Info("所有关闭回调已完成")
}
