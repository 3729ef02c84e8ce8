package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dg1vs/PyScopeGrab/pkg/protocol"
)

// MessageQueue 把抓屏/测量事件发布到 Redis,供下游消费。
// 事件同时写入按设备分键的定长 List 作为最近事件缓冲。
type MessageQueue struct {
	client  *redis.Client
	channel string
	log     *logrus.Logger
}

func NewMessageQueue(addr, password, channel string, db int, poolSize int, log *logrus.Logger) (*MessageQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})

	// 测试连接
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接Redis失败: %w", err)
	}

	log.Info("Redis连接成功")

	return &MessageQueue{
		client:  client,
		channel: channel,
		log:     log,
	}, nil
}

// PublishCapture 发布抓屏/打印事件
func (mq *MessageQueue) PublishCapture(ctx context.Context, ev *protocol.CaptureEvent) error {
	return mq.publish(ctx, ev, ev.Device)
}

// PublishMeasurement 发布测量事件
func (mq *MessageQueue) PublishMeasurement(ctx context.Context, ev *protocol.MeasurementEvent) error {
	return mq.publish(ctx, ev, ev.Device)
}

func (mq *MessageQueue) publish(ctx context.Context, ev interface{}, device string) error {
	jsonData, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	// 发布到Redis Pub/Sub
	if err := mq.client.Publish(ctx, mq.channel, jsonData).Err(); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}

	// 同时保存到定长List (最近事件缓冲,不是持久存储)
	listKey := fmt.Sprintf("scopegrab:%s:events", device)
	if err := mq.client.LPush(ctx, listKey, jsonData).Err(); err != nil {
		mq.log.Warnf("保存到List失败: %v", err)
	}

	// 保留最近1000条
	mq.client.LTrim(ctx, listKey, 0, 999)

	return nil
}

// Close 关闭连接
func (mq *MessageQueue) Close() error {
	return mq.client.Close()
}
