// scopegrab 本地抓屏工具:直接通过串口与 ScopeMeter 交互,
// 把屏幕保存为 PNG 文件。
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dg1vs/PyScopeGrab/internal/raster"
	"github.com/dg1vs/PyScopeGrab/internal/scope"
	"github.com/dg1vs/PyScopeGrab/pkg/protocol"
)

func main() {
	device := flag.String("t", "/dev/ttyUSB0", "串口设备路径")
	out := flag.String("o", "", "输出PNG文件路径")
	fgHex := flag.String("f", "#000000", "前景色 #rrggbb")
	bgHex := flag.String("y", "#ffffff", "背景色 #rrggbb")
	grab := flag.Bool("g", false, "立即抓屏")
	wait := flag.Bool("w", false, "等待设备上的 PRINT 按键")
	status := flag.Bool("s", false, "查询状态位")
	meas := flag.Int("m", 0, "查询测量通道 (1..12, 0=不查询)")
	numeric := flag.Bool("numeric", false, "测量只取数值")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05"})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	// 抓屏和等待打印互斥;都未指定时默认抓屏
	if *grab && *wait {
		log.Fatal("抓屏 (-g) 与等待打印 (-w) 不能同时使用")
	}
	if !*grab && !*wait {
		*grab = true
	}

	fg, err := raster.ParseHexColor(*fgHex)
	if err != nil {
		log.Fatalf("前景色无效: %v", err)
	}
	bg, err := raster.ParseHexColor(*bgHex)
	if err != nil {
		log.Fatalf("背景色无效: %v", err)
	}

	sess, err := scope.Open(*device, time.Second, log)
	if err != nil {
		log.Fatalf("打开仪器失败: %v", err)
	}
	defer sess.Close()

	// 身份总是查询并打印
	rec, err := sess.Identity()
	if err != nil {
		log.Fatalf("查询身份失败: %v", err)
	}
	fmt.Printf("型号: %s\n固件: %s\n", rec.Model, rec.Firmware)

	if *status {
		st, err := sess.Status()
		if err != nil {
			log.Fatalf("查询状态失败: %v", err)
		}
		fmt.Printf("状态: %d\n", int(st))
		for _, text := range st.Describe() {
			fmt.Printf("  %s\n", text)
		}
	}

	if *meas > 0 {
		if *numeric {
			v, err := sess.MeasurementValue(*meas)
			if err != nil {
				log.Fatalf("查询测量失败: %v", err)
			}
			fmt.Printf("通道 %d: %g\n", *meas, v)
		} else {
			r, err := sess.Measurement(*meas)
			if err != nil {
				log.Fatalf("查询测量失败: %v", err)
			}
			fmt.Printf("通道 %d: %s %g %s\n", *meas, r.Type, r.Value, r.Unit)
		}
	}

	var (
		img  *image.RGBA
		info *protocol.TransferInfo
	)
	if *wait {
		log.Info("请在 ScopeMeter 上按 PRINT...")
		img, info, err = sess.WaitPrintImage(fg, bg)
	} else {
		img, info, err = sess.GrabImage(fg, bg)
	}
	if err != nil {
		log.Fatalf("抓屏失败: %v", err)
	}
	if !info.ChecksumOK {
		log.Warnf("校验和不匹配 (设备=%d 本地=%d),图像仍然保存", info.DeviceSum, info.LocalSum)
	}

	if *out == "" {
		log.Info("未指定输出文件 (-o),不保存")
		return
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("创建输出文件失败: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		log.Fatalf("写PNG失败: %v", err)
	}
	log.Infof("%s 已保存", *out)
}
