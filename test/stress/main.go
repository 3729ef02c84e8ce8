package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// 统计指标
type Stats struct {
	TotalSent     int64 // 总发送数
	TotalFailed   int64 // 总失败数
	TotalErrResp  int64 // ERR 响应数
	ActiveClients int64 // 活跃客户端数
	TotalBytes    int64 // 总接收字节数
}

// 客户端模拟器:循环发送查询命令并统计响应
type Client struct {
	ID         int
	ServerAddr string
	Interval   time.Duration
	Commands   []string
	Stats      *Stats
	Log        *logrus.Logger
}

func (c *Client) Run(wg *sync.WaitGroup, duration time.Duration) {
	defer wg.Done()

	conn, err := net.DialTimeout("tcp", c.ServerAddr, 10*time.Second)
	if err != nil {
		atomic.AddInt64(&c.Stats.TotalFailed, 1)
		c.Log.Errorf("[%d] 连接失败: %v", c.ID, err)
		return
	}
	defer conn.Close()

	atomic.AddInt64(&c.Stats.ActiveClients, 1)
	defer atomic.AddInt64(&c.Stats.ActiveClients, -1)

	reader := bufio.NewReader(conn)
	deadline := time.Now().Add(duration)

	for i := 0; time.Now().Before(deadline); i++ {
		cmd := c.Commands[i%len(c.Commands)]

		if _, err := fmt.Fprintf(conn, "%s\n", cmd); err != nil {
			atomic.AddInt64(&c.Stats.TotalFailed, 1)
			c.Log.Debugf("[%d] 发送失败: %v", c.ID, err)
			return
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			atomic.AddInt64(&c.Stats.TotalFailed, 1)
			c.Log.Debugf("[%d] 读取失败: %v", c.ID, err)
			return
		}

		atomic.AddInt64(&c.Stats.TotalSent, 1)
		atomic.AddInt64(&c.Stats.TotalBytes, int64(len(line)))
		if strings.HasPrefix(line, "ERR:") {
			atomic.AddInt64(&c.Stats.TotalErrResp, 1)
		}

		time.Sleep(c.Interval)
	}
}

func main() {
	host := flag.String("host", "localhost:5025", "服务器地址")
	clients := flag.Int("clients", 10, "并发客户端数")
	interval := flag.Duration("interval", 100*time.Millisecond, "命令发送间隔")
	duration := flag.Duration("duration", 30*time.Second, "压测时长")
	flag.Parse()

	log := logrus.New()
	stats := &Stats{}

	// 混合命令:测量为主,身份为辅 (HCOPY 太重,压测不用)
	commands := []string{"MEAS:VOLT:DC?", "MEAS:VOLT:DC?", "*IDN?", "IS?"}

	log.Infof("启动压测: %d 客户端, 间隔 %v, 时长 %v", *clients, *interval, *duration)

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		c := &Client{
			ID:         i,
			ServerAddr: *host,
			Interval:   *interval,
			Commands:   commands,
			Stats:      stats,
			Log:        log,
		}
		go c.Run(&wg, *duration)
	}

	// 定期输出统计
	ticker := time.NewTicker(5 * time.Second)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

loop:
	for {
		select {
		case <-ticker.C:
			log.Infof("已发送: %d, 失败: %d, ERR响应: %d, 活跃: %d",
				atomic.LoadInt64(&stats.TotalSent),
				atomic.LoadInt64(&stats.TotalFailed),
				atomic.LoadInt64(&stats.TotalErrResp),
				atomic.LoadInt64(&stats.ActiveClients))
		case <-done:
			break loop
		}
	}
	ticker.Stop()

	elapsed := time.Since(start)
	sent := atomic.LoadInt64(&stats.TotalSent)
	log.Infof("压测结束: %d 命令 / %v (%.1f cmd/s), 失败 %d, ERR %d, 接收 %d 字节",
		sent, elapsed.Round(time.Second), float64(sent)/elapsed.Seconds(),
		atomic.LoadInt64(&stats.TotalFailed),
		atomic.LoadInt64(&stats.TotalErrResp),
		atomic.LoadInt64(&stats.TotalBytes))
}
