package ytdlp

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/zap"

	"vasset/resolver-service/internal/config"
	"vasset/resolver-service/internal/utils"
)

type fakeRunner struct {
	stdout string
	stderr string
	err    error
	block  bool

	name string
	args []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	if f.block {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func newTestWrapper(t *testing.T, runner Runner, modify func(*config.ExtractorConfig)) *Wrapper {
	t.Helper()
	cfg := config.Default().Extractor
	cfg.CookieFile = filepath.Join(t.TempDir(), "cookies.txt")
	if modify != nil {
		modify(&cfg)
	}
	return NewWrapper(&cfg, runner, zap.NewNop())
}

const adaptiveJSON = `{"id":"abc","title":"  Some   Song ","url":"","formats":[
{"format_id":"137","url":"https://v","ext":"mp4","acodec":"none","vcodec":"avc1","tbr":4000.5},
{"format_id":"251","url":"https://a","ext":"webm","acodec":"opus","vcodec":"none","format_note":"medium","tbr":null}
],"requested_formats":[
{"format_id":"137","url":"https://v","acodec":"none","vcodec":"avc1"},
{"format_id":"251","url":"https://a","acodec":"opus","vcodec":"none","format_note":"medium"}
]}`

func TestExtractInfoParsesAdaptive(t *testing.T) {
	runner := &fakeRunner{stdout: adaptiveJSON + "\n"}
	w := newTestWrapper(t, runner, nil)

	meta, err := w.ExtractInfo(context.Background(), "https://www.youtube.com/watch?v=abc", false)
	if err != nil {
		t.Fatalf("ExtractInfo() error: %v", err)
	}
	if meta.Title != "Some Song" {
		t.Errorf("title = %q, want sanitized", meta.Title)
	}
	if len(meta.Formats) != 2 || len(meta.RequestedFormats) != 2 {
		t.Fatalf("formats=%d requested=%d, want 2/2", len(meta.Formats), len(meta.RequestedFormats))
	}
	if meta.Formats[1].TBR != nil {
		t.Error("null tbr should stay nil")
	}
	if meta.Formats[0].TBR == nil || *meta.Formats[0].TBR != 4000.5 {
		t.Error("tbr not parsed")
	}
	if meta.RequestedFormats[1].ACodec != "opus" {
		t.Errorf("requested acodec = %q", meta.RequestedFormats[1].ACodec)
	}
}

func TestExtractInfoDirectFields(t *testing.T) {
	runner := &fakeRunner{stdout: `{"id":"x","title":"t","url":"https://direct","format_id":"140","format_note":"medium","acodec":"mp4a.40.2","formats":[]}`}
	w := newTestWrapper(t, runner, nil)

	meta, err := w.ExtractInfo(context.Background(), "u", false)
	if err != nil {
		t.Fatalf("ExtractInfo() error: %v", err)
	}
	if meta.RequestedFormats != nil {
		t.Error("requested formats should be absent")
	}
	if meta.DirectURL != "https://direct" || meta.DirectFormatID != "140" || meta.DirectACodec != "mp4a.40.2" {
		t.Errorf("direct fields not mapped: %+v", meta)
	}
}

func TestExtractInfoEmptyOutput(t *testing.T) {
	for _, out := range []string{"", "null\n", "WARNING: something\n"} {
		w := newTestWrapper(t, &fakeRunner{stdout: out}, nil)
		meta, err := w.ExtractInfo(context.Background(), "u", false)
		if err != nil || meta != nil {
			t.Errorf("stdout %q: got (%v, %v), want (nil, nil)", out, meta, err)
		}
	}
}

func TestExtractInfoClassifiesStderr(t *testing.T) {
	tests := []struct {
		stderr string
		want   error
	}{
		{"WARNING: x\nERROR: [youtube] abc: Video unavailable", utils.ErrUnavailable},
		{"ERROR: [youtube] abc: Sign in to confirm you're not a bot", utils.ErrAuthRequired},
		{"ERROR: something odd happened", utils.ErrExtractionFailed},
	}

	for _, tt := range tests {
		runner := &fakeRunner{stderr: tt.stderr, err: errors.New("exit status 1")}
		w := newTestWrapper(t, runner, nil)

		_, err := w.ExtractInfo(context.Background(), "u", false)
		if !errors.Is(err, tt.want) {
			t.Errorf("stderr %q: err = %v, want %v", tt.stderr, err, tt.want)
		}
		var extractionErr *utils.ExtractionError
		if !errors.As(err, &extractionErr) {
			t.Fatalf("expected *ExtractionError, got %T", err)
		}
		if extractionErr.Message == "" || extractionErr.Message[0] == 'E' {
			t.Errorf("message should have ERROR prefix stripped: %q", extractionErr.Message)
		}
	}
}

func TestExtractInfoTolerantOfPartialFailure(t *testing.T) {
	runner := &fakeRunner{
		stdout: adaptiveJSON,
		stderr: "ERROR: [youtube] unable to download subtitles",
		err:    errors.New("exit status 1"),
	}
	w := newTestWrapper(t, runner, nil)

	meta, err := w.ExtractInfo(context.Background(), "u", false)
	if err != nil {
		t.Fatalf("ExtractInfo() error: %v", err)
	}
	if meta == nil || meta.ID != "abc" {
		t.Errorf("meta = %+v, want parsed record", meta)
	}
}

func TestExtractInfoSingleLineAfterWarnings(t *testing.T) {
	stdout := "WARNING: [youtube] falling back to web client\n" +
		`{"id":"one","title":"Line","formats":[{"format_id":"140","acodec":"mp4a.40.2","vcodec":"none"}]}` + "\n" +
		`{"id":"two","title":"Second"}` + "\n"
	w := newTestWrapper(t, &fakeRunner{stdout: stdout}, nil)

	meta, err := w.ExtractInfo(context.Background(), "u", false)
	if err != nil {
		t.Fatalf("ExtractInfo() error: %v", err)
	}
	if meta.ID != "one" || len(meta.Formats) != 1 {
		t.Errorf("meta = %+v, want first record only", meta)
	}
}

func TestExtractInfoBinaryMissing(t *testing.T) {
	runner := &fakeRunner{err: &exec.Error{Name: "yt-dlp", Err: exec.ErrNotFound}}
	w := newTestWrapper(t, runner, nil)

	_, err := w.ExtractInfo(context.Background(), "u", false)
	if !errors.Is(err, utils.ErrYTDLPNotFound) {
		t.Errorf("err = %v, want ErrYTDLPNotFound", err)
	}
}

func TestExtractInfoTimeout(t *testing.T) {
	w := newTestWrapper(t, &fakeRunner{block: true}, func(c *config.ExtractorConfig) { c.Timeout = 1 })

	_, err := w.ExtractInfo(context.Background(), "u", false)
	if !errors.Is(err, utils.ErrExtractionTimeout) || !errors.Is(err, utils.ErrExtractionFailed) {
		t.Errorf("err = %v, want ErrExtractionTimeout", err)
	}
}

func TestExtractInfoBadJSON(t *testing.T) {
	w := newTestWrapper(t, &fakeRunner{stdout: "{not json"}, nil)

	_, err := w.ExtractInfo(context.Background(), "u", false)
	if err == nil {
		t.Fatal("expected parse error")
	}
	var extractionErr *utils.ExtractionError
	if errors.As(err, &extractionErr) {
		t.Error("parse failure should not be an extraction error")
	}
}

func TestBuildArgs(t *testing.T) {
	runner := &fakeRunner{}
	w := newTestWrapper(t, runner, func(c *config.ExtractorConfig) {
		c.NoCheckCertificate = true
		c.Proxy = "socks5://127.0.0.1:1080"
		c.ExtraArgs = []string{"--extractor-args", "youtube:player_client=web"}
	})
	if err := os.WriteFile(w.cfg.CookieFile, []byte("# Netscape HTTP Cookie File\n"), 0600); err != nil {
		t.Fatal(err)
	}

	args := w.buildArgs("https://youtu.be/abc", true)

	for _, want := range []string{
		"--dump-json", "--skip-download", "bestaudio/best", "--no-check-certificates",
		"--geo-bypass", "--ignore-errors", "--force-generic-extractor", "--proxy", "--cookies",
		"--extractor-args",
	} {
		if !slices.Contains(args, want) {
			t.Errorf("args missing %q: %v", want, args)
		}
	}
	if got := args[len(args)-2:]; got[0] != "--" || got[1] != "https://youtu.be/abc" {
		t.Errorf("url should be last after --, got %v", got)
	}
	if i := slices.Index(args, "--playlist-items"); i < 0 || args[i+1] != "1" {
		t.Errorf("playlist items not limited: %v", args)
	}
}

func TestBuildArgsSkipsMissingCookieFile(t *testing.T) {
	w := newTestWrapper(t, &fakeRunner{}, nil)

	args := w.buildArgs("u", false)
	if slices.Contains(args, "--cookies") {
		t.Errorf("--cookies passed for missing file: %v", args)
	}
	if slices.Contains(args, "--force-generic-extractor") {
		t.Errorf("generic flag passed for normal extraction: %v", args)
	}
}

func TestVersion(t *testing.T) {
	runner := &fakeRunner{stdout: "2024.08.06\n"}
	w := newTestWrapper(t, runner, nil)

	v, err := w.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error: %v", err)
	}
	if v != "2024.08.06" {
		t.Errorf("version = %q", v)
	}
	if len(runner.args) != 1 || runner.args[0] != "--version" {
		t.Errorf("args = %v", runner.args)
	}
}
