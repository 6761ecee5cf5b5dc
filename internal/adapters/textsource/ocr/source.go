// Package ocr recognises text in invoice images with the tesseract command
// line engine.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrNoText is returned when the engine recognises nothing in the image.
var ErrNoText = errors.New("el OCR no reconoció texto en la imagen")

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner. Standard error is attached to the returned error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// Config configures the OCR source.
type Config struct {
	Binary          string
	Languages       string
	TessdataDir     string
	PSM             int // 0 keeps tesseract's default
	MaxConcurrent   int
	Timeout         time.Duration
	TempDir         string // empty uses os.TempDir
	BreakerFailures int
	BreakerCooldown time.Duration
}

// Source is a document.TextSource backed by tesseract.
type Source struct {
	cfg     Config
	runner  Runner
	limiter *Limiter
	breaker *Breaker
	log     *slog.Logger
}

// NewSource creates an OCR source. A nil runner uses ExecRunner.
func NewSource(cfg Config, runner Runner, log *slog.Logger) *Source {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Languages == "" {
		cfg.Languages = "spa+eng"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Source{
		cfg:     cfg,
		runner:  runner,
		limiter: NewLimiter(cfg.MaxConcurrent),
		breaker: NewBreaker(cfg.BreakerFailures, cfg.BreakerCooldown),
		log:     log,
	}
}

// ExtractText implements document.TextSource.
func (s *Source) ExtractText(ctx context.Context, content []byte) (string, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}
	defer s.limiter.Release()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	var out []byte
	err := s.breaker.Execute(func() error {
		var runErr error
		out, runErr = s.recognize(ctx, content)
		return runErr
	})
	if err != nil {
		s.log.Warn("ocr failed",
			"error", err,
			"breaker", s.breaker.State().String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	text := Normalize(string(out))
	s.log.Debug("ocr completed",
		"bytes", len(content),
		"text_length", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func (s *Source) recognize(ctx context.Context, content []byte) ([]byte, error) {
	f, err := os.CreateTemp(s.cfg.TempDir, "factura-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create temp image: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(content); err != nil {
		f.Close()
		return nil, fmt.Errorf("write temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp image: %w", err)
	}

	return s.runner.Run(ctx, s.cfg.Binary, s.args(path)...)
}

func (s *Source) args(path string) []string {
	args := []string{path, "stdout", "-l", s.cfg.Languages}
	if s.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(s.cfg.PSM))
	}
	if s.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", s.cfg.TessdataDir)
	}
	return args
}

// Check verifies the tesseract binary can be executed.
func (s *Source) Check(ctx context.Context) error {
	if _, err := s.runner.Run(ctx, s.cfg.Binary, "--version"); err != nil {
		return fmt.Errorf("tesseract unavailable: %w", err)
	}
	return nil
}
