package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
)

func main() {
	host := flag.String("host", "localhost:5025", "服务器地址")
	idn := flag.Bool("idn", true, "查询 *IDN?")
	status := flag.Bool("is", false, "查询 IS?")
	meas := flag.Bool("meas", false, "查询 MEAS:VOLT:DC?")
	hcopy := flag.Bool("hcopy", false, "查询 HCOPY:DATA? 并保存PNG")
	out := flag.String("out", "grab.png", "HCOPY 输出文件")
	flag.Parse()

	conn, err := net.Dial("tcp", *host)
	if err != nil {
		log.Fatalf("连接失败: %v", err)
	}
	defer conn.Close()

	fmt.Printf("已连接到: %s\n", *host)
	reader := bufio.NewReader(conn)

	if *idn {
		fmt.Printf("*IDN? -> %s\n", queryLine(conn, reader, "*IDN?"))
	}
	if *status {
		fmt.Printf("IS? -> %s\n", queryLine(conn, reader, "IS?"))
	}
	if *meas {
		fmt.Printf("MEAS:VOLT:DC? -> %s\n", queryLine(conn, reader, "MEAS:VOLT:DC?"))
	}
	if *hcopy {
		data, err := queryBinblock(conn, reader, "HCOPY:DATA?")
		if err != nil {
			log.Fatalf("HCOPY 失败: %v", err)
		}
		if err := os.WriteFile(*out, data, 0644); err != nil {
			log.Fatalf("保存失败: %v", err)
		}
		fmt.Printf("HCOPY:DATA? -> %s 已保存 (%d 字节)\n", *out, len(data))
	}
}

// queryLine 发送一条命令并读取单行文本响应
func queryLine(conn net.Conn, reader *bufio.Reader, cmd string) string {
	if _, err := fmt.Fprintf(conn, "%s\n", cmd); err != nil {
		log.Fatalf("发送失败: %v", err)
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("读取响应失败: %v", err)
	}
	return strings.TrimSpace(line)
}

// queryBinblock 发送命令并解析二进制块响应: '#' + 长度位数 + 长度 + 数据
func queryBinblock(conn net.Conn, reader *bufio.Reader, cmd string) ([]byte, error) {
	if _, err := fmt.Fprintf(conn, "%s\n", cmd); err != nil {
		return nil, err
	}

	head, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if head != '#' {
		// 可能是 ERR 行
		rest, _ := reader.ReadString('\n')
		return nil, fmt.Errorf("非二进制块响应: %c%s", head, strings.TrimSpace(rest))
	}

	nd, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if nd < '0' || nd > '9' {
		return nil, fmt.Errorf("长度位数非法: %c", nd)
	}

	digits := make([]byte, nd-'0')
	if _, err := io.ReadFull(reader, digits); err != nil {
		return nil, err
	}
	length, err := strconv.Atoi(string(digits))
	if err != nil {
		return nil, fmt.Errorf("长度解析失败: %q", digits)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, err
	}

	// 吃掉块后的换行
	reader.ReadByte()
	return data, nil
}
