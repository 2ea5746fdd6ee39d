// Command publisher sends a receipt token read from stdin to the operator feed.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/example/zari-storefront/internal/adapter/natsstan"
	"github.com/example/zari-storefront/internal/config"
	"github.com/example/zari-storefront/internal/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	token, err := readToken(os.Stdin)
	if err != nil {
		log.Fatal("read token from stdin", zap.Error(err))
	}
	if !cfg.NATS.Enabled() {
		log.Fatal("NATS_URL is not set")
	}
	pub, err := natsstan.Connect(cfg.NATS.ClusterID, cfg.NATS.ClientID, cfg.NATS.URL, cfg.NATS.Subject)
	if err != nil {
		log.Fatal("stan connect", zap.Error(err))
	}
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, token); err != nil {
		log.Fatal("publish", zap.Error(err))
	}
	log.Info("published token", zap.Int("bytes", len(token)), zap.String("subject", cfg.NATS.Subject))
}

// readToken joins all non-blank lines; messaging apps tend to wrap long tokens.
func readToken(r io.Reader) (string, error) {
	var b strings.Builder
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		b.WriteString(strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no token on input")
	}
	return b.String(), nil
}
