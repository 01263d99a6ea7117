package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/consul/api"
)

// ConsulHelper 封装 Consul 注册、发现与分布式锁
// 使用前请确保 Consul agent 已启动

type ConsulHelper struct {
	client *api.Client
}

// NewConsulHelper 创建 Consul 客户端
func NewConsulHelper(addr string) (*ConsulHelper, error) {
	cfg := api.DefaultConfig()
	cfg.Address = addr
	cli, err := api.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ConsulHelper{client: cli}, nil
}

// NewConsulHelperWithAddrs 支持多个 Consul 地址高可用
func NewConsulHelperWithAddrs(addrs []string) (*ConsulHelper, error) {
	var lastErr error
	for _, addr := range addrs {
		cfg := api.DefaultConfig()
		cfg.Address = addr
		cli, err := api.NewClient(cfg)
		if err == nil {
			// 尝试健康检查
			_, errPing := cli.Agent().Self()
			if errPing == nil {
				return &ConsulHelper{client: cli}, nil
			}
			lastErr = errPing
		} else {
			lastErr = err
		}
	}
	return nil, fmt.Errorf("all consul addresses failed: %v", lastErr)
}

// RegisterMatchService 注册撮合服务到 Consul
func (c *ConsulHelper) RegisterMatchService(nodeID string, port int) error {
	reg := &api.AgentServiceRegistration{
		ID:   nodeID,
		Name: "cex_match",
		Port: port,
		Check: &api.AgentServiceCheck{
			TCP:      fmt.Sprintf("127.0.0.1:%d", port),
			Interval: "10s",
			Timeout:  "2s",
		},
	}
	return c.client.Agent().ServiceRegister(reg)
}

// Client 返回 consul client
func (c *ConsulHelper) Client() *api.Client {
	return c.client
}

// consulSymbolLocker 基于 Consul 分布式锁的 SymbolLocker 实现
// 多节点部署时保证同一交易对全局只有一轮撮合在跑
type consulSymbolLocker struct {
	client *api.Client
}

func NewConsulSymbolLocker(helper *ConsulHelper) SymbolLocker {
	return &consulSymbolLocker{client: helper.Client()}
}

func (l *consulSymbolLocker) Lock(ctx context.Context, symbol string) (func(), error) {
	lock, err := l.client.LockOpts(&api.LockOptions{
		Key:          "cex_match/match_lock/" + symbol,
		LockWaitTime: 15 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	leaderCh, err := lock.Lock(ctx.Done())
	if err != nil {
		return nil, err
	}
	if leaderCh == nil {
		return nil, ErrSymbolBusy
	}
	return func() { _ = lock.Unlock() }, nil
}
