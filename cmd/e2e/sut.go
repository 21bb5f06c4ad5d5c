package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hairizuanbinnoorazman/ui-e2e/envconfig"
	"github.com/hairizuanbinnoorazman/ui-e2e/fakesut"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
	"github.com/spf13/cobra"
)

func newSUTCmd() *cobra.Command {
	var (
		addr        string
		showSecrets bool
	)

	cmd := &cobra.Command{
		Use:   "sut",
		Short: "Serve the bundled fake system under test",
		Long: `Serve a small web application with login, lockout and rate limiting that
the built-in scenarios can run against. A matching .env snippet is printed
on startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.SUT.Addr = addr
			}
			log := newLogger(cfg.Log, cmd.ErrOrStderr())

			srv, err := newFakeSUT(cfg.SUT, log)
			if err != nil {
				return err
			}
			url, err := srv.Start(cfg.SUT.Addr)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Serving on %s\n\n", url)
			writeEnv(out, suggestedEnv(url, srv.Config()), showSecrets)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides sut.addr)")
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print secret values such as USER_PASSWORD in the .env snippet")
	return cmd
}

func newFakeSUT(cfg SUTConfig, log logger.Logger) (*fakesut.Server, error) {
	users, err := parseUsers(cfg.Users)
	if err != nil {
		return nil, err
	}
	return fakesut.New(fakesut.Config{
		Users:            users,
		MaxLoginAttempts: cfg.MaxLoginAttempts,
		PagePath:         cfg.PagePath,
		WarmupRequests:   cfg.WarmupRequests,
		ActionBurst:      cfg.ActionBurst,
		ActionInterval:   cfg.ActionInterval,
		Cooldown:         cfg.Cooldown,
		CookieSecret:     cfg.CookieSecret,
	}, log)
}

const maskSecret = "********"

type envVar struct {
	Key   string
	Value string
}

// suggestedEnv returns scenario settings that match a running fake server.
func suggestedEnv(baseURL string, cfg fakesut.Config) []envVar {
	emails := make([]string, 0, len(cfg.Users))
	for email := range cfg.Users {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	var email, password string
	if len(emails) > 0 {
		email, password = emails[0], cfg.Users[emails[0]]
	}

	cooldown := int(math.Ceil(cfg.Cooldown.Seconds())) + 1

	return []envVar{
		{envconfig.KeyBaseURL, baseURL},
		{envconfig.KeyLoginEndpoint, "/login"},
		{envconfig.KeyPageEndpoint, cfg.PagePath},
		{envconfig.KeyMaxLoginAttempts, strconv.Itoa(cfg.MaxLoginAttempts)},
		{envconfig.KeyRateLimitAttempts, strconv.Itoa(cfg.ActionBurst + 2)},
		{envconfig.KeyTimeoutErrorS, strconv.Itoa(cooldown)},
		{envconfig.KeyPageTitleRegex, "^" + regexp.QuoteMeta(cfg.LoginTitle) + "$"},
		{envconfig.KeyPageTitleMain, "^" + regexp.QuoteMeta(cfg.MainTitle) + "$"},
		{envconfig.KeyPageTestTitle, "^" + regexp.QuoteMeta(cfg.PageTitle) + "$"},
		{envconfig.KeyEmailLabel, cfg.EmailLabel},
		{envconfig.KeyPasswordLabel, cfg.PasswordLabel},
		{envconfig.KeyButtonText, cfg.LoginButton},
		{envconfig.KeyButtonToPageTest, cfg.PageLinkText},
		{envconfig.KeyButtonTextToTest01, cfg.Test01Button},
		{envconfig.KeyButtonTextToTest02, cfg.Test02Button},
		{envconfig.KeyErrorMessageText, cfg.LockoutMessage},
		{envconfig.KeyUserLogin, email},
		{envconfig.KeyUserPassword, password},
		{envconfig.KeyHeaderURL, baseURL + "/"},
		{envconfig.KeyHeaderChecklist, "checklists/header.yaml"},
	}
}

// writeEnv prints vars as .env lines. Secret values are masked unless
// showSecrets is set.
func writeEnv(w io.Writer, vars []envVar, showSecrets bool) {
	for _, v := range vars {
		value := v.Value
		if envconfig.IsSecret(v.Key) && !showSecrets {
			value = maskSecret
		}
		if strings.ContainsAny(value, " #\"\\$") {
			value = strconv.Quote(value)
		}
		fmt.Fprintf(w, "%s=%s\n", v.Key, value)
	}
}
