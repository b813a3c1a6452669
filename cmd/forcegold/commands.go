package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/ForceGold/internal/analyze"
	"github.com/Alias1177/ForceGold/internal/api/alphavantage"
	"github.com/Alias1177/ForceGold/internal/api/csvfile"
	"github.com/Alias1177/ForceGold/internal/api/massive"
	"github.com/Alias1177/ForceGold/internal/api/twelvedata"
	"github.com/Alias1177/ForceGold/internal/api/variants"
	"github.com/Alias1177/ForceGold/internal/cache"
	"github.com/Alias1177/ForceGold/internal/config"
	"github.com/Alias1177/ForceGold/internal/database"
	"github.com/Alias1177/ForceGold/internal/notify"
	"github.com/Alias1177/ForceGold/internal/runner"
	"github.com/Alias1177/ForceGold/models"
)

type app struct {
	cfg      *config.Config
	save     bool
	sendTG   bool
	noCache  bool
	cleanups []func()
}

func (a *app) close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

func newRootCmd(ctx context.Context) *cobra.Command {
	a := &app{}
	var (
		provider string
		interval string
		days     int
		base     string
		logLevel string
	)

	root := &cobra.Command{
		Use:           "forcegold",
		Short:         "Gold/dollar correlation regimes and gold strength index",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			flags := cmd.Flags()
			if flags.Changed("provider") {
				cfg.Provider = provider
			}
			if flags.Changed("interval") {
				cfg.Interval = interval
			}
			if flags.Changed("days") {
				cfg.LookbackDays = days
			}
			if flags.Changed("base") {
				cfg.BaseSymbol = base
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			setupLogging(cfg.LogLevel)
			printConfig(cfg)
			a.cfg = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&provider, "provider", "twelvedata", "data provider: twelvedata, alphavantage, massive or csv")
	pf.StringVar(&interval, "interval", "5min", "bar interval (1min, 5min, 15min, 1h, ...)")
	pf.IntVar(&days, "days", 14, "lookback window in days")
	pf.StringVar(&base, "base", "XAU/USD", "base instrument")
	pf.StringVar(&logLevel, "log-level", "info", "log level")
	pf.BoolVar(&a.save, "save", false, "store the result in PostgreSQL")
	pf.BoolVar(&a.sendTG, "notify", false, "send the report to Telegram")
	pf.BoolVar(&a.noCache, "no-cache", false, "bypass the Redis series cache")

	root.AddCommand(correlationCmd(ctx, a))
	root.AddCommand(strengthCmd(ctx, a))
	root.AddCommand(historyCmd(ctx, a))
	root.AddCommand(clearCacheCmd(ctx, a))
	return root
}

func correlationCmd(ctx context.Context, a *app) *cobra.Command {
	var other string
	var alts []string
	cmd := &cobra.Command{
		Use:   "correlation",
		Short: "Correlate log returns of the base instrument with a dollar proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			if cmd.Flags().Changed("other") {
				a.cfg.CorrelationSymbol = other
			}
			if cmd.Flags().Changed("variants") {
				a.cfg.CorrelationVariants = alts
			}
			r, err := a.runner(ctx)
			if err != nil {
				return err
			}
			out, err := r.Correlation(ctx, a.cfg.BaseSymbol, a.cfg.CorrelationSymbol, a.window(time.Now()))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out.Report)
			return nil
		},
	}
	cmd.Flags().StringVar(&other, "other", "UUP", "instrument correlated against the base")
	cmd.Flags().StringSliceVar(&alts, "variants", nil, "alternative tickers tried when --other returns nothing")
	return cmd
}

func strengthCmd(ctx context.Context, a *app) *cobra.Command {
	var pairs []string
	cmd := &cobra.Command{
		Use:   "strength",
		Short: "Compute the strength index of the base instrument across quote currencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			if cmd.Flags().Changed("pairs") {
				a.cfg.QuotePairs = pairs
			}
			r, err := a.runner(ctx)
			if err != nil {
				return err
			}
			out, err := r.Strength(ctx, a.cfg.BaseSymbol, a.cfg.QuotePairs, a.window(time.Now()))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out.Report)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&pairs, "pairs", nil, "FX pairs used to derive cross rates")
	return cmd
}

func historyCmd(ctx context.Context, a *app) *cobra.Command {
	var limit int
	var kind string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored runs for the base instrument",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			db, err := a.database()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch kind {
			case "correlation":
				runs, err := db.RecentCorrelations(ctx, a.cfg.BaseSymbol, limit)
				if err != nil {
					return err
				}
				for _, r := range runs {
					fmt.Fprintf(w, "%s  %s  %-10s %+.4f  %-17s n=%d\n",
						r.Created.UTC().Format(time.RFC3339), r.ID, r.Result.Other, r.Result.Rho, r.Result.Label, r.Result.Samples)
				}
			case "strength":
				runs, err := db.RecentStrength(ctx, a.cfg.BaseSymbol, limit)
				if err != nil {
					return err
				}
				for _, r := range runs {
					fmt.Fprintf(w, "%s  %s  %+.4f  %-8s n=%d\n",
						r.Created.UTC().Format(time.RFC3339), r.ID, r.Index.Value, r.Index.Pressure, r.Index.Samples)
				}
			default:
				return fmt.Errorf("unknown history kind %q", kind)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	cmd.Flags().StringVar(&kind, "kind", "correlation", "correlation or strength")
	return cmd
}

func clearCacheCmd(ctx context.Context, a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Drop every cached price series from Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			client, err := a.redis(ctx)
			if err != nil {
				return err
			}
			n, err := cache.Clear(ctx, client)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached series\n", n)
			return nil
		},
	}
}

func (a *app) window(now time.Time) runner.Window {
	start, end := a.cfg.Window(now)
	return runner.Window{Interval: a.cfg.IntervalDuration(), Start: start, End: end}
}

func (a *app) runner(ctx context.Context) (*runner.Runner, error) {
	analysisCfg, err := a.cfg.Analysis()
	if err != nil {
		return nil, err
	}
	engine, err := analyze.NewEngine(analysisCfg, log.Logger)
	if err != nil {
		return nil, err
	}

	provider, err := a.provider(ctx)
	if err != nil {
		return nil, err
	}

	var opts []runner.Option
	if a.save {
		db, err := a.database()
		if err != nil {
			return nil, err
		}
		opts = append(opts, runner.WithStore(db))
	}
	if a.sendTG {
		var chats []int64
		if a.cfg.TelegramChatID != 0 {
			chats = append(chats, a.cfg.TelegramChatID)
		}
		tg, err := notify.NewTelegramBot(a.cfg.TelegramBotToken, chats...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, runner.WithNotifier(tg))
	}
	return runner.New(provider, engine, log.Logger, opts...), nil
}

func (a *app) provider(ctx context.Context) (models.SeriesProvider, error) {
	cfg := a.cfg
	timeout := time.Duration(cfg.RequestTimeout) * time.Second

	var p models.SeriesProvider
	switch cfg.Provider {
	case "twelvedata":
		if cfg.TwelveAPIKey == "" {
			return nil, errors.New("TWELVE_API_KEY is required for the twelvedata provider")
		}
		p = twelvedata.NewClient(twelvedata.ClientOptions{
			APIKey:         cfg.TwelveAPIKey,
			RequestTimeout: timeout,
			RequestsPerSec: cfg.RequestsPerSec,
			MaxRetries:     cfg.MaxRetries,
		})
	case "alphavantage":
		if cfg.AlphaVantageAPIKey == "" {
			return nil, errors.New("ALPHAVANTAGE_API_KEY is required for the alphavantage provider")
		}
		p = alphavantage.NewClient(alphavantage.ClientOptions{
			APIKey:         cfg.AlphaVantageAPIKey,
			RequestTimeout: timeout,
			MaxRetries:     cfg.MaxRetries,
		})
	case "massive":
		if cfg.MassiveAPIKey == "" {
			return nil, errors.New("MASSIVE_API_KEY is required for the massive provider")
		}
		p = massive.NewClient(massive.ClientOptions{
			APIKey:         cfg.MassiveAPIKey,
			RequestTimeout: timeout,
			RequestsPerSec: cfg.RequestsPerSec,
			MaxRetries:     cfg.MaxRetries,
		})
	case "csv":
		p = csvfile.New(cfg.CSVDir)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	if !a.noCache && cfg.RedisAddr != "" && cfg.Provider != "csv" {
		client, err := a.redis(ctx)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, running without cache")
		} else {
			sc := cache.NewSeriesCache(p, client, cfg.CacheTTLDuration())
			a.cleanups = append(a.cleanups, sc.LogStats)
			p = sc
		}
	}

	if len(cfg.CorrelationVariants) > 0 {
		p = variants.New(p, map[string][]string{cfg.CorrelationSymbol: cfg.CorrelationVariants}, variants.DefaultPause)
	}
	return p, nil
}

// redis connects to REDIS_ADDR; the client is closed with the command
func (a *app) redis(ctx context.Context) (*redis.Client, error) {
	if a.cfg.RedisAddr == "" {
		return nil, errors.New("REDIS_ADDR is not set")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	a.cleanups = append(a.cleanups, func() { client.Close() })
	return client, nil
}

func (a *app) database() (*database.DB, error) {
	if a.cfg.DBHost == "" {
		return nil, errors.New("DB_HOST is not set")
	}
	db, err := database.New(database.ConnectionParams{
		Host:     a.cfg.DBHost,
		Port:     a.cfg.DBPort,
		User:     a.cfg.DBUser,
		Password: a.cfg.DBPassword,
		DBName:   a.cfg.DBName,
		SSLMode:  a.cfg.DBSSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	a.cleanups = append(a.cleanups, func() { db.Close() })
	return db, nil
}
