package nsc

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"kibo-catalog-sync/pkg/util"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
	"go.uber.org/zap"
)

var (
	singleton *NatsPubClient
	once      sync.Once
)

// NatsPubClient 同步事件发布客户端
type NatsPubClient struct {
	clientName string
	cfg        *NatsConfig
	nc         *nats.Conn
}

func InitNats(clientName string, config *NatsConfig) error {
	zap.S().Info("***初始化NATS")
	var hasError error
	once.Do(func() {
		client := &NatsPubClient{
			clientName: clientName,
			cfg:        config,
			nc:         nil,
		}
		defaultAccount, err := config.GetDefaultAccount()
		if err != nil {
			hasError = err
			return
		}
		if err := client.Connect(defaultAccount); err != nil {
			hasError = err
			return
		}
		singleton = client
	})
	return hasError
}

func (nsc *NatsPubClient) Connect(account *NatsAccount) error {
	if nsc.nc != nil {
		return nil
	}
	opt := nats.GetDefaultOptions()
	opt.Name = fmt.Sprintf("%s %s", util.GetVersion().AppName, util.GetVersion().Version)
	opt.User = account.UserName
	opt.Password = account.Password
	opt.Nkey = account.NKey
	opt.Url = nsc.cfg.Endpoint
	opt.NoCallbacksAfterClientClose = true
	opt.ReconnectWait = 2 * time.Second //重试等待2s
	opt.MaxReconnect = -1               //永远重试
	opt.AllowReconnect = true
	opt.ReconnectJitter = 500 * time.Millisecond
	opt.DisconnectedErrCB = func(conn *nats.Conn, err error) {
		zap.S().Debugf("*** 断开连接...%s ***", err.Error())
	}
	opt.ReconnectedCB = func(conn *nats.Conn) {
		zap.S().Debugf("*** 已重连 ***")
	}
	opt.ConnectedCB = func(conn *nats.Conn) {
		zap.S().Debugf("*** NATS 已连接 ***")
	}

	opt.SignatureCB = func(b []byte) ([]byte, error) {
		sk, err := nkeys.FromSeed(util.StringToBytes(account.Seed))
		if err != nil {
			return nil, err
		}
		return sk.Sign(b)
	}

	nc, err := opt.Connect()
	if err != nil {
		return err
	}
	nc.SetErrorHandler(func(conn *nats.Conn, sub *nats.Subscription, natsErr error) {
		zap.S().Errorf("Nats 捕获错误: %v", natsErr)
	})
	nsc.nc = nc
	return nil
}

// Publish 发布一条同步事件（载荷序列化为 JSON）
func (nsc *NatsPubClient) Publish(subject string, payload interface{}) error {
	if nsc.nc == nil {
		return fmt.Errorf("NATS 尚未连接")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return nsc.nc.Publish(subject, data)
}

func (nsc *NatsPubClient) Close() {
	if nsc.nc != nil {
		_ = nsc.nc.Drain()
		nsc.nc.Close()
		zap.S().Debugf("*** NATS 已经关闭 ***")
	}
}

func GetNatsClient() *NatsPubClient {
	if singleton == nil {
		zap.S().Fatal("无法使用nats，请先初始化nats")
	}
	return singleton
}

func (nsc *NatsPubClient) GetNatsConn() *nats.Conn {
	return nsc.nc
}
