// Package cookies inspects the Netscape-format cookie file handed to the extractor.
package cookies

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var netscapeHeaders = []string{"# Netscape HTTP Cookie File", "# HTTP Cookie File"}

// Report cookie 文件概况, 不包含 cookie 内容
type Report struct {
	Path           string    `json:"path"`
	Exists         bool      `json:"exists"`
	Size           int64     `json:"size"`
	Lines          int       `json:"lines"`
	CookieCount    int       `json:"cookie_count"`
	MalformedLines int       `json:"malformed_lines"`
	NetscapeHeader bool      `json:"netscape_header"`
	Domains        []string  `json:"domains"`
	ModifiedAt     time.Time `json:"modified_at,omitempty"`
}

// Inspect 检查 cookie 文件
func Inspect(path string) (*Report, error) {
	report := &Report{Path: path, Domains: []string{}}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat cookie file: %w", err)
	}

	report.Exists = true
	report.Size = info.Size()
	report.ModifiedAt = info.ModTime().UTC()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cookie file: %w", err)
	}
	defer f.Close()

	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		report.Lines++

		if report.Lines == 1 {
			for _, h := range netscapeHeaders {
				if strings.HasPrefix(line, h) {
					report.NetscapeHeader = true
				}
			}
		}

		// #HttpOnly_ 前缀的行是 cookie, 不是注释
		line = strings.TrimPrefix(line, "#HttpOnly_")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			report.MalformedLines++
			continue
		}

		report.CookieCount++
		domain := strings.TrimPrefix(fields[0], ".")
		if !seen[domain] {
			seen[domain] = true
			report.Domains = append(report.Domains, domain)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}

	return report, nil
}

// EnsureFile cookie 文件不存在时创建空文件, 返回是否新建
func EnsureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat cookie file: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, fmt.Errorf("create cookie dir: %w", err)
		}
	}

	if err := os.WriteFile(path, nil, 0600); err != nil {
		return false, fmt.Errorf("create cookie file: %w", err)
	}
	return true, nil
}
