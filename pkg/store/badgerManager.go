package store

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
	"go.uber.org/zap"
)

var instance *BadgerStore
var once sync.Once

// SyncCheckpoint 同步断点记录，按任务键落盘最近处理完的商品序列号
type SyncCheckpoint struct {
	Key          string `badgerhold:"key"`
	LastSequence int64
	UpdatedAt    time.Time
}

type BadgerStore struct {
	store *badgerhold.Store
}

// SaveSequence 落盘指定任务的游标
func (b *BadgerStore) SaveSequence(key string, lastSequence int64) error {
	return b.store.Upsert(key, &SyncCheckpoint{
		Key:          key,
		LastSequence: lastSequence,
		UpdatedAt:    time.Now(),
	})
}

// LoadSequence 读取指定任务的游标。没有断点时返回 found=false，不算错误。
func (b *BadgerStore) LoadSequence(key string) (int64, bool, error) {
	var checkpoint SyncCheckpoint
	err := b.store.Get(key, &checkpoint)
	if err == badgerhold.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return checkpoint.LastSequence, true, nil
}

// ClearSequence 清除指定任务的游标
func (b *BadgerStore) ClearSequence(key string) error {
	err := b.store.Delete(key, SyncCheckpoint{})
	if err == badgerhold.ErrNotFound {
		return nil
	}
	return err
}

func (b *BadgerStore) View(fn func(txn *badger.Txn) error) error {
	return b.store.Badger().View(fn)
}

// InitStore 初始化断点存储。dir 为空时使用工作目录下的 etc/data。
func InitStore(dir string) error {
	var hasError error
	once.Do(func() {
		if dir == "" {
			p, err := os.Getwd()
			if err != nil {
				hasError = err
				return
			}
			dir = filepath.Join(p, "etc", "data")
		}
		options := badgerhold.DefaultOptions
		options.Dir = dir
		options.ValueDir = dir
		store, err := badgerhold.Open(options)
		if err != nil {
			hasError = err
			return
		}
		instance = &BadgerStore{store: store}
	})
	return hasError
}

func GetStore() *BadgerStore {
	if instance == nil {
		zap.S().Fatal("无法使用断点存储，请先初始化")
	}
	return instance
}

func CloseStore() {
	if instance != nil {
		zap.S().Info("正在关闭断点存储...")
		err := instance.store.Close()
		if err != nil {
			zap.S().Errorf("关闭断点存储时发生错误: %v", err)
		} else {
			zap.S().Info("断点存储已成功关闭")
		}
		// 重置实例，避免重复关闭
		instance = nil
	}
}
