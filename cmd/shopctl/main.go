// Command shopctl drives the plant shop API from a terminal using the same
// optimistic cart and favorite controls as the storefront.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/plant-shop/internal/client"
	"github.com/example/plant-shop/internal/client/mirror"
	"github.com/example/plant-shop/internal/client/notify"
	"github.com/example/plant-shop/internal/config"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	baseURL    string
	userID     string
	token      string
	yes        bool

	out    io.Writer
	in     *bufio.Reader
	api    *client.Client
	bus    *notify.Bus
	closer func()
}

func main() {
	a := &app{out: os.Stdout, in: bufio.NewReader(os.Stdin)}
	if err := a.rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "shopctl",
		Short:        "Plant shop command line client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.closer != nil {
				a.closer()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", os.Getenv("PLANTSHOP_CONFIG"), "YAML config file")
	flags.StringVar(&a.baseURL, "url", "", "API base URL (overrides config)")
	flags.StringVarP(&a.userID, "user", "u", "", "user ID (overrides config)")
	flags.StringVar(&a.token, "token", "", "bearer token (overrides config)")
	flags.BoolVarP(&a.yes, "yes", "y", false, "confirm removals without prompting")

	root.AddCommand(a.plantsCmd(), a.cartCmd(), a.favCmd(), a.loginCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.baseURL == "" {
		a.baseURL = cfg.Client.BaseURL
	}
	if a.userID == "" {
		a.userID = cfg.Client.UserID
	}
	if a.token == "" {
		a.token = cfg.Client.Token
	}

	a.api = client.New(a.baseURL, client.WithToken(a.token))
	a.bus = notify.New()
	errOut := cmd.ErrOrStderr()
	unsubscribe, err := a.bus.Subscribe(func(n notify.Notification) {
		fmt.Fprintf(errOut, "[%s] %s\n", n.Type, n.Message)
	})
	if err != nil {
		return err
	}
	a.closer = func() {
		unsubscribe()
		a.bus.Close()
	}
	return nil
}

func (a *app) deps() mirror.Deps {
	return mirror.Deps{
		API:      a.api,
		Session:  mirror.StaticSession{ID: a.userID},
		Notifier: a.bus,
		Confirm:  a.confirm,
	}
}

func (a *app) confirm(ctx context.Context, prompt string) bool {
	if a.yes {
		return true
	}
	fmt.Fprintf(a.out, "%s [y/N] ", prompt)
	answer, err := a.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// plantName is best effort; controls only use it in notifications
func (a *app) plantName(ctx context.Context, productID string) string {
	p, err := a.api.GetPlant(ctx, productID)
	if err != nil || p.CommonName == "" {
		return productID
	}
	return p.CommonName
}
