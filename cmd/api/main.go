package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/tdsflow/internal/adapter/actor"
	"github.com/berfenger/tdsflow/internal/config"
	"github.com/berfenger/tdsflow/internal/core/actor"
	"github.com/berfenger/tdsflow/internal/core/card"
	"github.com/berfenger/tdsflow/internal/core/domain"
	"github.com/berfenger/tdsflow/internal/core/hass"
	"github.com/berfenger/tdsflow/internal/core/service"
	"github.com/berfenger/tdsflow/internal/metrics"
	"github.com/berfenger/tdsflow/internal/scheduler"
	"github.com/berfenger/tdsflow/internal/server"
	"github.com/berfenger/tdsflow/internal/util/actorutil"
	"github.com/berfenger/tdsflow/pkg/display"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	formatter, err := formatterFromConfig(cfg)
	if err != nil {
		slog.Error("render config errors", "error", err)
		return
	}

	cardConfig, err := loadCardConfig(cfg.Card.ConfigFile)
	if err != nil {
		slog.Error("card config errors", "error", err)
		return
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, mqttActorProvider(cfg, logger), cardActorProvider(cfg, formatter, m, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		return
	}

	if cardConfig != nil {
		res, err := ctx.RequestFuture(pid, domain.SetCardConfigRequest{Config: cardConfig}, 5*time.Second).Result()
		if err != nil {
			panic(fmt.Sprintf("could not apply card config: %s", err))
		}
		if resp, ok := res.(domain.SetCardConfigResponse); ok && resp.HasResponseError() {
			panic(fmt.Sprintf("could not apply card config: %s", resp.GetResponseError()))
		}
	}

	schedCtx, cancelSched := context.WithCancel(context.Background())
	defer cancelSched()
	sched, err := scheduler.StartRepublish(schedCtx, time.Duration(cfg.Render.RepublishIntervalSecs)*time.Second, ctx, pid, logger)
	if err != nil {
		panic(fmt.Sprintf("scheduler error: %s", err))
	}

	server := server.NewServer(*cfg, ctx, pid, registry)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	if sched != nil {
		sched.Stop()
	}
	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => TDSFLOW_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("TDSFLOW_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("tdsflow")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix statestream topic
	ssTopic, err := config.CheckMQTTTopic(cfg.MQTT.StatestreamTopic)
	if err != nil {
		return nil, errors.New("invalid statestream topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.StatestreamTopic = ssTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// check bounds
	switch display.Policy(cfg.Render.Policy) {
	case display.POLICY_RAW, display.POLICY_FORMATTED:
	default:
		return nil, errors.New("config param render.policy should be raw or formatted")
	}
	if cfg.Render.RepublishIntervalSecs > 0 && cfg.Render.RepublishIntervalSecs < 10 {
		return nil, errors.New("config param render.republish_interval_secs should be 0 or >= 10")
	}
	if cfg.Render.HelperAcquireTimeoutMs < 100 {
		return nil, errors.New("config param render.helper_acquire_timeout_millis should be >= 100")
	}

	return &cfg, nil
}

func formatterFromConfig(cfg *config.Config) (*display.Formatter, error) {
	policy := display.Policy(cfg.Render.Policy)
	if policy == display.POLICY_RAW || cfg.Render.Locale == "" {
		return display.NewFormatter(policy, nil), nil
	}
	host, err := display.NewLocaleFormatter(cfg.Render.Locale)
	if err != nil {
		return nil, err
	}
	return display.NewFormatter(policy, host), nil
}

func loadCardConfig(path string) (card.Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// YAML is a superset of JSON
	return card.ParseYAML(data)
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func() *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, logger)
	}
}

// the store lives outside the actor so a restarted card keeps the states
// it already received
func cardActorProvider(cfg *config.Config, formatter *display.Formatter, m *metrics.Metrics, logger *zap.Logger) actor.CardActorProvider {
	store := hass.NewStore()
	helpers := hass.SharedHelpers()
	srv := service.NewCardService(store, helpers, formatter, m, logger)
	return func(mqttActor *pactor.PID) *actor.CardActor {
		return actor.NewCardActor(cfg, srv, helpers, mqttActor, m, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "tdsflow")
	viper.SetDefault("mqtt.statestream_topic", "homeassistant_statestream")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("card.config_file", "")
	viper.SetDefault("render.policy", string(display.POLICY_FORMATTED))
	viper.SetDefault("render.locale", "en")
	viper.SetDefault("render.republish_interval_secs", 300)
	viper.SetDefault("render.helper_acquire_timeout_millis", 2000)
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
