package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/zari-storefront/internal/adapter/clipboard"
	"github.com/example/zari-storefront/internal/adapter/natsstan"
	"github.com/example/zari-storefront/internal/delivery"
	"github.com/example/zari-storefront/internal/logger"
	"github.com/example/zari-storefront/internal/receiptcodec"
	"github.com/example/zari-storefront/internal/usecase"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	secret string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "decoder",
		Short:        "Decode Zari receipt tokens",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.secret, "secret", os.Getenv("RECEIPT_SECRET"), "receipt secret (default $RECEIPT_SECRET)")

	cmd.AddCommand(decodeCmd(opts), watchCmd(opts), regionsCmd())
	return cmd
}

func (o *rootOptions) codec() (*receiptcodec.Codec, error) {
	if o.secret == "" {
		return nil, errors.New("no receipt secret: pass --secret or set RECEIPT_SECRET")
	}
	return receiptcodec.New(o.secret)
}

func decodeCmd(opts *rootOptions) *cobra.Command {
	var password string
	var copyOut bool

	c := &cobra.Command{
		Use:   "decode [token]",
		Short: "Decode a token given as argument or on stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := opts.codec()
			if err != nil {
				return err
			}
			token, err := tokenArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			uc := usecase.DecodeReceipt{Codec: codec, Password: os.Getenv("ADMIN_PASSWORD")}
			plain, err := uc.Execute(password, token)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), plain)
			if copyOut {
				cb, err := clipboard.NewSystem()
				if err != nil {
					return err
				}
				return cb.WriteText(plain)
			}
			return nil
		},
	}

	c.Flags().StringVarP(&password, "password", "p", "", "admin password (must match $ADMIN_PASSWORD)")
	c.Flags().BoolVar(&copyOut, "copy", false, "also copy the decoded receipt to the clipboard")
	_ = c.MarkFlagRequired("password")
	return c
}

func tokenArg(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", errors.New("no token given")
	}
	return token, nil
}

func watchCmd(opts *rootOptions) *cobra.Command {
	sub := natsstan.Subscriber{
		URL:       os.Getenv("NATS_URL"),
		ClusterID: envOr("STAN_CLUSTER_ID", "zari-cluster"),
		Subject:   envOr("STAN_SUBJECT", "receipts"),
	}
	var logEnv string

	c := &cobra.Command{
		Use:   "watch",
		Short: "Decode tokens from the handoff feed as they arrive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			codec, err := opts.codec()
			if err != nil {
				return err
			}
			if sub.URL == "" {
				return errors.New("no feed: pass --nats-url or set NATS_URL")
			}
			log, err := logger.New(logEnv)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			sub.Log = log

			uc := usecase.ProcessHandoffToken{Codec: codec, Out: cmd.OutOrStdout(), Log: log}
			if err := sub.Subscribe(cmd.Context(), uc.Execute); err != nil {
				return err
			}
			log.Info("watching receipt feed", zap.String("subject", sub.Subject))
			<-cmd.Context().Done()
			return nil
		},
	}

	c.Flags().StringVar(&sub.URL, "nats-url", sub.URL, "NATS URL (default $NATS_URL)")
	c.Flags().StringVar(&sub.ClusterID, "cluster", sub.ClusterID, "streaming cluster id")
	c.Flags().StringVar(&sub.Subject, "subject", sub.Subject, "handoff subject")
	c.Flags().StringVar(&sub.Durable, "durable", "zari-decoder", "durable subscription name")
	c.Flags().StringVar(&logEnv, "log-env", envOr("LOG_ENV", "development"), "development or production logging")
	return c
}

func regionsCmd() *cobra.Command {
	var tablePath string

	c := &cobra.Command{
		Use:   "regions",
		Short: "Print the delivery fee table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := delivery.Default()
			if tablePath != "" {
				t, err := delivery.LoadFile(tablePath)
				if err != nil {
					return err
				}
				table = t
			}
			printTable(cmd.OutOrStdout(), table)
			return nil
		},
	}
	c.Flags().StringVar(&tablePath, "table", os.Getenv("DELIVERY_TABLE_PATH"), "YAML table to print instead of the built-in one")
	return c
}

func printTable(w io.Writer, t *delivery.Table) {
	for _, id := range t.Regions() {
		if p, ok := t.Centroid(id); ok {
			fmt.Fprintf(w, "%s (%.4f, %.4f)\n", id, p.Lat, p.Lng)
		} else {
			fmt.Fprintln(w, id)
		}
		for _, sub := range t.SubRegions(id) {
			fmt.Fprintf(w, "  %-28s %d AED\n", sub, t.Fee(id, sub))
		}
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadEnv reads an optional env file; only a missing file is tolerated.
func loadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
