package main

import (
	"log"
	"os"
	"strconv"
	"syscall"
)

// 通知看板服务重新加载数据并重新打开日志文件
// 用法: go run . <pid>，不传pid时发给当前进程
func main() {
	pid := os.Getpid()
	if len(os.Args) > 1 {
		p, err := strconv.Atoi(os.Args[1])
		if err != nil {
			log.Fatal("Invalid pid:", err)
		}
		pid = p
	}

	// 向目标进程发送 SIGHUP
	err := syscall.Kill(pid, syscall.SIGHUP)
	if err != nil {
		log.Fatal("Failed to send SIGHUP:", err)
	}
}
