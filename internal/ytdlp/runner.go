package ytdlp

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner 执行外部命令, 分别返回 stdout 和 stderr
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner 基于 os/exec 的 Runner
type ExecRunner struct{}

// Run 执行命令
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
