package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/adapters/admin"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/adapters/bus"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/adapters/emotes"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/adapters/generator"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/adapters/handler"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/adapters/preview"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/adapters/relay"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/adapters/storage"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/adapters/twitch"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	builtin "github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain/handler"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/port"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/service"
	irc "github.com/gempir/go-twitch-irc/v4"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	started := time.Now()
	log.Info().Msg("starting nomercy bot...")

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	log.Info().Msg("reading config file...")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal().Err(err).Msg("could not read config file")
	}

	var logLevel zerolog.Level

	switch viper.GetString("bot.log_level") {
	case "trace":
		logLevel = zerolog.TraceLevel
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	handlerTimeout, err := time.ParseDuration(viper.GetString("bot.handler_timeout"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timeout for handler in config")
	}
	convoTimeout, err := time.ParseDuration(viper.GetString("ai.context_timeout"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timeout for ai context in config")
	}

	store, err := storage.OpenSQLite(ctx, viper.GetString("storage.path"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed opening database")
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(reg)

	events := bus.New(viper.GetInt("bus.buffer"))

	catalogs, snapshots := loadCatalogs()

	fetcher := preview.NewFetcher(preview.FetcherParams{
		Timeout:  viper.GetDuration("preview.timeout"),
		Rate:     rate.Limit(viper.GetFloat64("preview.rate")),
		Burst:    viper.GetInt("preview.burst"),
		MaxBytes: viper.GetInt64("preview.max_bytes"),
	})

	prefix := viper.GetString("bot.command_prefix")

	botToken := strings.TrimPrefix(viper.GetString("twitch.bot_token"), "oauth:")

	chat := twitch.NewChat(twitch.ChatParams{
		Client:  irc.NewClient(viper.GetString("twitch.bot_username"), "oauth:"+botToken),
		Channel: viper.GetString("twitch.channel"),
		Prefix:  prefix,
		Rate:    rate.Limit(viper.GetFloat64("twitch.chat_rate")),
		Burst:   viper.GetInt("twitch.chat_burst"),
	})

	helix := twitch.NewHelix(ctx, twitch.HelixParams{
		ClientID:     viper.GetString("twitch.client_id"),
		ClientSecret: viper.GetString("twitch.client_secret"),
		AccessToken:  botToken,
		RefreshToken: viper.GetString("twitch.refresh_token"),
		UserTTL:      viper.GetDuration("twitch.user_ttl"),
	})

	decorator := service.NewDecorator(service.DecoratorParams{
		Catalogs: catalogs,
		Previews: fetcher,
		Metrics:  metrics,
	})

	commandRegistry := service.NewCommandRegistry(service.CommandRegistryParams{
		Store:   store,
		Sender:  chat,
		Factory: builtin.FromCommandRecord,
		Prefix:  prefix,
		Metrics: metrics,
	})

	commandRegistry.Register(domain.ChatCommand{
		Name:        "commands",
		Permission:  domain.RoleEveryone,
		Type:        domain.CommandTypeCommand,
		Description: "Lists the commands you can use",
		Handler:     builtin.NewList(commandRegistry, prefix),
	})
	commandRegistry.Register(domain.ChatCommand{
		Name:        "botstats",
		Permission:  domain.RoleModerator,
		Type:        domain.CommandTypeCommand,
		Description: "Shows bot runtime stats",
		Handler:     builtin.NewDebug(started, store),
	})

	if apiKey := viper.GetString("openrouter.api_key"); apiKey != "" {
		orGenerator := generator.NewOpenRouter(apiKey, viper.GetString("openrouter.model"),
			viper.GetString("openrouter.system_prompt"))

		ask := builtin.NewAsk(builtin.AskParams{
			TextGenerator: orGenerator,
			CacheDuration: convoTimeout,
			Track:         service.NewUsageTracker(ctx),
		})

		commandRegistry.Register(domain.ChatCommand{
			Name:        "ask",
			Permission:  domain.RoleEveryone,
			Type:        domain.CommandTypeCommand,
			Description: "Ask the bot anything",
			Handler:     ask,
		})
		commandRegistry.Register(domain.ChatCommand{
			Name:        "forget",
			Permission:  domain.RoleModerator,
			Type:        domain.CommandTypeCommand,
			Description: "Clears the ask conversation of this channel",
			Handler:     builtin.NewClearContext(ask),
		})
	} else {
		log.Info().Msg("no openrouter api key, ask command disabled")
	}

	roles, err := service.NewChannelRoleResolver()
	if err != nil {
		log.Fatal().Err(err).Msg("failed loading reward roles")
	}

	rewardRegistry := service.NewRewardRegistry(service.RewardRegistryParams{
		Store:     store,
		Updater:   helix,
		Users:     helix,
		Roles:     roles,
		Sender:    chat,
		Publisher: events,
		Factory:   builtin.FromRewardRecord,
		Metrics:   metrics,
	})

	var overlayTitles []string
	if err := viper.UnmarshalKey("rewards.overlay_titles", &overlayTitles); err != nil {
		log.Fatal().Err(err).Msg("failed loading overlay rewards")
	}
	overlay := builtin.NewOverlay(events)
	for _, title := range overlayTitles {
		rewardRegistry.Register(domain.TwitchReward{
			Title:      title,
			Permission: domain.RoleEveryone,
			Handler:    overlay,
		})
	}

	if err := commandRegistry.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed loading commands")
	}
	if err := rewardRegistry.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed loading rewards")
	}

	glue := handler.NewEvents(handler.EventsParams{
		Decorator: decorator,
		Commands:  commandRegistry,
		Rewards:   rewardRegistry,
		Messages:  store,
		Publisher: events,
		Timeout:   handlerTimeout,
	})

	g, ctx := errgroup.WithContext(ctx)

	if len(snapshots) > 0 && viper.GetBool("emotes.watch") {
		g.Go(func() error {
			return emotes.Watch(ctx, snapshots)
		})
	}

	if token := viper.GetString("telegram.bot_token"); token != "" {
		b, err := bot.New(token, bot.WithDefaultHandler(noOpHandler))
		if err != nil {
			log.Fatal().Err(err).Msg("failed initializing telegram bot")
		}

		telegram := relay.NewTelegram(b, viper.GetInt64("telegram.relay_chat_id"))
		notices, unsubscribe := events.Subscribe("reward.")
		g.Go(func() error {
			defer unsubscribe()
			telegram.Run(ctx, notices)
			return nil
		})
	}

	server := admin.NewServer(admin.ServerParams{
		Commands:    commandRegistry,
		Rewards:     rewardRegistry,
		Redemptions: glue,
		Overlay:     bus.NewOverlayHub(events, viper.GetStringSlice("admin.overlay_origins"), builtin.EventRewardOverlay),
		Gatherer:    reg,
		Context:     ctx,
	})
	g.Go(func() error {
		return server.ListenAndServe(ctx, viper.GetString("admin.addr"))
	})

	g.Go(func() error {
		return chat.Run(ctx, func(message *domain.ChatMessage) {
			go glue.HandleChat(ctx, message)
		})
	})

	log.Info().Msg("bot listening")
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("bot stopped")
	}
}

// loadCatalogs returns the third-party catalogs in decoration order and the snapshot files backing them.
func loadCatalogs() ([]port.EmoteCatalog, map[string]*emotes.Catalog) {
	sources := []struct {
		provider domain.EmoteProvider
		key      string
	}{
		{domain.ProviderFrankerFaceZ, "emotes.frankerfacez_snapshot"},
		{domain.ProviderBTTV, "emotes.bttv_snapshot"},
		{domain.ProviderSevenTV, "emotes.seventv_snapshot"},
	}

	var catalogs []port.EmoteCatalog
	snapshots := make(map[string]*emotes.Catalog)

	for _, s := range sources {
		catalog := emotes.NewCatalog(s.provider)
		catalogs = append(catalogs, catalog)

		path := viper.GetString(s.key)
		if path == "" {
			continue
		}
		if err := catalog.LoadFile(path); err != nil {
			log.Warn().Err(err).Str("provider", string(s.provider)).Msg("failed loading emote snapshot")
		}
		snapshots[path] = catalog
	}

	return catalogs, snapshots
}

func setDefaults() {
	viper.SetDefault("bot.log_level", "info")
	viper.SetDefault("bot.command_prefix", "!")
	viper.SetDefault("bot.handler_timeout", "30s")
	viper.SetDefault("ai.context_timeout", "10m")
	viper.SetDefault("ai.daily_token_limit", 200000)
	viper.SetDefault("storage.path", "nomercybot.db")
	viper.SetDefault("emotes.watch", true)
	viper.SetDefault("preview.timeout", "5s")
	viper.SetDefault("preview.rate", 2.0)
	viper.SetDefault("preview.burst", 4)
	viper.SetDefault("admin.addr", "127.0.0.1:8080")
	viper.SetDefault("bus.buffer", 64)
	viper.SetDefault("twitch.user_ttl", "10m")
}

func noOpHandler(_ context.Context, _ *bot.Bot, _ *models.Update) {}
