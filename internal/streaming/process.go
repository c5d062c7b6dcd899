package streaming

import (
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"syscall"
)

// setPlatformProcessGroup is a hook for per-OS process setup. FFmpeg is
// killed directly, so nothing is needed today.
func setPlatformProcessGroup(cmd *exec.Cmd) {
	if runtime.GOOS == "linux" || runtime.GOOS == "darwin" {
		log.Println("📦 FFmpeg process group setup (Unix)")
	}
}

// killFFmpegProcess asks FFmpeg to exit: SIGTERM on Unix so the FLV trailer
// is written, taskkill on Windows. Falls back to Kill when that fails.
func killFFmpegProcess(cmd *exec.Cmd, pid int) {
	if cmd == nil || cmd.Process == nil {
		return
	}

	if runtime.GOOS == "windows" {
		log.Println("🔪 Killing FFmpeg on Windows...")
		killCmd := exec.Command("taskkill", "/F", "/T", "/PID", fmt.Sprintf("%d", pid))
		if err := killCmd.Run(); err != nil {
			cmd.Process.Kill()
		}
		return
	}

	log.Println("🔪 Terminating FFmpeg on Unix...")
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		cmd.Process.Kill()
	}
}
