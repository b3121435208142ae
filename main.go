// Copyright © 2025 Attestant Limited.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	// #nosec G108
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zerologger "github.com/rs/zerolog/log"
	"github.com/skeanproxy/skean/cmd"
	"github.com/skeanproxy/skean/core"
	restapi "github.com/skeanproxy/skean/services/api/rest"
	"github.com/skeanproxy/skean/services/authority"
	staticauthority "github.com/skeanproxy/skean/services/authority/static"
	"github.com/skeanproxy/skean/services/backend"
	gmsmbackend "github.com/skeanproxy/skean/services/backend/gmsm"
	stdcryptobackend "github.com/skeanproxy/skean/services/backend/stdcrypto"
	"github.com/skeanproxy/skean/services/cache"
	lrucache "github.com/skeanproxy/skean/services/cache/lru"
	"github.com/skeanproxy/skean/services/dispatcher"
	pooleddispatcher "github.com/skeanproxy/skean/services/dispatcher/pooled"
	"github.com/skeanproxy/skean/services/generator"
	standardgenerator "github.com/skeanproxy/skean/services/generator/standard"
	"github.com/skeanproxy/skean/services/identity"
	standardidentity "github.com/skeanproxy/skean/services/identity/standard"
	"github.com/skeanproxy/skean/services/metrics"
	prometheusmetrics "github.com/skeanproxy/skean/services/metrics/prometheus"
	"github.com/skeanproxy/skean/services/reloader"
	standardreloader "github.com/skeanproxy/skean/services/reloader/standard"
	"github.com/skeanproxy/skean/util"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	majordomo "github.com/wealdtech/go-majordomo"
)

// ReleaseVersion is the release version for the code.
var ReleaseVersion = "0.9.0"

var log = zerologger.Logger

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	if err := fetchConfig(); err != nil {
		zerologger.Fatal().Err(err).Msg("Failed to fetch configuration")
	}

	majordomo, err := util.InitMajordomo(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise majordomo")
	}

	// runCommands will not return if a command is run.
	exit, exitCode := runCommands(ctx, majordomo)
	if exit {
		os.Exit(exitCode)
	}

	if err := initLogging(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise logging")
	}

	if viper.GetString("authority.cert") == "" {
		log.Fatal().Msg("No authority certificate set; cannot start")
	}
	if viper.GetString("authority.key") == "" {
		log.Fatal().Msg("No authority key set; cannot start")
	}

	logModules()
	log.Info().Str("version", ReleaseVersion).Msg("Starting skean")

	if err := initProfiling(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise profiling")
	}

	runtime.GOMAXPROCS(runtime.NumCPU() * 8)

	monitor, err := startMonitor(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to start metrics service")
		return
	}
	setBuild(monitor, ReleaseVersion)
	setReady(monitor, false)

	err = startServices(ctx, majordomo, monitor)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialise services")
		return
	}
	setReady(monitor, true)

	log.Info().Msg("All services operational")

	// Wait for signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	for {
		sig := <-sigCh
		if sig == syscall.SIGINT || sig == syscall.SIGTERM || sig == os.Interrupt || sig == os.Kill {
			cancel()
			break
		}
	}

	log.Info().Msg("Stopping skean")
	setReady(monitor, false)

	// Give services a chance to stop cleanly before we exit.
	time.Sleep(2 * time.Second)
}

// fetchConfig fetches configuration from various sources.
func fetchConfig() error {
	pflag.String("base-dir", "", "base directory for configuration files")
	pflag.String("log-level", "info", "minimum level of messsages to log")
	pflag.String("log-file", "", "redirect log output to a file")
	pflag.String("profile-address", "", "Address on which to run Go profile server")
	pflag.Bool("show-authority", false, "show root authority information and exit")
	pflag.Bool("version", false, "show skean version and exit")
	pflag.Parse()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return errors.Wrap(err, "failed to bind pflags to viper")
	}

	if viper.GetString("base-dir") != "" {
		// User-defined base directory.
		viper.AddConfigPath(viper.GetString("base-dir"))
		viper.SetConfigName("skean")
	} else {
		// Home directory.
		home, err := homedir.Dir()
		if err != nil {
			return errors.Wrap(err, "failed to obtain home directory")
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".skean")
	}

	// Environment settings.
	viper.SetEnvPrefix("SKEAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// Defaults.
	viper.SetDefault("backend.name", "stdcrypto")
	viper.SetDefault("certificate.validity", 24*time.Hour)
	viper.SetDefault("certificate.key-algorithm", "ecdsa-p256")
	viper.SetDefault("cache.capacity", 4096)
	viper.SetDefault("cache.ttl", time.Hour)
	viper.SetDefault("dispatcher.workers", 4)
	viper.SetDefault("dispatcher.queue-depth", 256)
	viper.SetDefault("dispatcher.enqueue-timeout", 100*time.Millisecond)
	viper.SetDefault("dispatcher.request-timeout", 10*time.Second)

	if err := viper.ReadInConfig(); err != nil {
		switch {
		case errors.As(err, &viper.ConfigFileNotFoundError{}):
			// It is allowable for skean to not have a configuration file, but only if
			// we have the information from elsewhere (e.g. environment variables).  Check
			// to see if we have an authority certificate configured, as if not we aren't
			// going to get very far anyway.
			if viper.GetString("authority.cert") == "" {
				// Assume the underlying issue is that the configuration file is missing.
				return errors.Wrap(err, "could not find the configuration file")
			}
		case errors.As(err, &viper.ConfigParseError{}):
			return errors.Wrap(err, "could not parse the configuration file")
		default:
			return errors.Wrap(err, "failed to obtain configuration")
		}
	}

	return nil
}

// initLogging initialises the global logger.
func initLogging() error {
	if viper.GetString("log-file") != "" {
		f, err := os.OpenFile(util.ResolvePath(viper.GetString("log-file")), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return errors.Wrap(err, "failed to open log file")
		}
		zerologger.Logger = zerologger.Logger.Output(f)
	}
	zerolog.SetGlobalLevel(util.LogLevel(""))
	log = zerologger.Logger

	return nil
}

// initProfiling initialises the profiling server.
//
//nolint:unparam
func initProfiling() error {
	profileAddress := viper.GetString("profile-address")
	if profileAddress != "" {
		go func() {
			log.Info().Str("profile_address", profileAddress).Msg("Starting profile server")
			server := &http.Server{
				Addr:              profileAddress,
				ReadHeaderTimeout: 5 * time.Second,
			}
			runtime.SetMutexProfileFraction(1)
			if err := server.ListenAndServe(); err != nil {
				log.Warn().Str("profile_address", profileAddress).Err(err).Msg("Failed to run profile server")
			}
		}()
	}
	return nil
}

func runCommands(ctx context.Context, majordomo majordomo.Service) (bool, int) {
	if viper.GetBool("version") {
		fmt.Printf("%s\n", ReleaseVersion)
		return true, 0
	}

	if viper.GetBool("show-authority") {
		err := cmd.ShowAuthority(ctx, majordomo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "show-authority failed: %v\n", err)
			return true, 1
		}
		return true, 0
	}

	// No command run so no need to exit.
	return false, 0
}

func startServices(ctx context.Context, majordomo majordomo.Service, monitor metrics.Service) error {
	backendSvc, err := startBackend(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to start cryptographic backend")
	}

	authoritySvc, err := startAuthority(ctx, majordomo, monitor, backendSvc)
	if err != nil {
		return errors.Wrap(err, "failed to start authority store")
	}

	cacheSvc, err := startCache(ctx, monitor, authoritySvc)
	if err != nil {
		return errors.Wrap(err, "failed to start certificate cache")
	}

	generatorSvc, err := startGenerator(ctx, monitor, backendSvc, authoritySvc)
	if err != nil {
		return errors.Wrap(err, "failed to start certificate generator")
	}

	dispatcherSvc, err := startDispatcher(ctx, monitor, generatorSvc, cacheSvc, authoritySvc)
	if err != nil {
		return errors.Wrap(err, "failed to start dispatcher")
	}

	identitySvc, err := startIdentity(ctx, monitor, cacheSvc, dispatcherSvc)
	if err != nil {
		return errors.Wrap(err, "failed to start identity provider")
	}

	reloaderSvc, err := startReloader(ctx, majordomo, monitor, backendSvc, authoritySvc)
	if err != nil {
		return errors.Wrap(err, "failed to start authority reloader")
	}

	if viper.GetString("api.listen-address") != "" {
		var apiMonitor metrics.APIMonitor
		if monitor, isMonitor := monitor.(metrics.APIMonitor); isMonitor {
			apiMonitor = monitor
		}
		_, err = restapi.New(ctx,
			restapi.WithLogLevel(util.LogLevel("api")),
			restapi.WithMonitor(apiMonitor),
			restapi.WithListenAddress(viper.GetString("api.listen-address")),
			restapi.WithAuthority(authoritySvc),
			restapi.WithReloader(reloaderSvc),
			restapi.WithCache(cacheSvc),
		)
		if err != nil {
			return errors.Wrap(err, "failed to create API service")
		}
	}

	if viper.GetString("server.listen-address") != "" {
		if err := startListener(ctx, identitySvc); err != nil {
			return errors.Wrap(err, "failed to start interception listener")
		}
	}

	return nil
}

func startBackend(ctx context.Context) (backend.Service, error) {
	switch viper.GetString("backend.name") {
	case "stdcrypto":
		return stdcryptobackend.New(ctx,
			stdcryptobackend.WithLogLevel(util.LogLevel("backend")),
			stdcryptobackend.WithValidity(viper.GetDuration("certificate.validity")),
		)
	case "gmsm":
		return gmsmbackend.New(ctx,
			gmsmbackend.WithLogLevel(util.LogLevel("backend")),
			gmsmbackend.WithValidity(viper.GetDuration("certificate.validity")),
		)
	default:
		return nil, errors.Errorf("unknown backend %q", viper.GetString("backend.name"))
	}
}

func startAuthority(ctx context.Context, majordomo majordomo.Service, monitor metrics.Service, backendSvc backend.Service) (authority.Service, error) {
	certPEM, err := majordomo.Fetch(ctx, viper.GetString("authority.cert"))
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to obtain authority certificate from %s", viper.GetString("authority.cert")))
	}
	keyPEM, err := majordomo.Fetch(ctx, viper.GetString("authority.key"))
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to obtain authority key from %s", viper.GetString("authority.key")))
	}

	initial, err := backendSvc.ParseAuthority(ctx, certPEM, keyPEM)
	if err != nil {
		return nil, errors.Wrap(err, "invalid authority material")
	}

	var authorityMonitor metrics.AuthorityMonitor
	if monitor, isMonitor := monitor.(metrics.AuthorityMonitor); isMonitor {
		authorityMonitor = monitor
	}
	return staticauthority.New(ctx,
		staticauthority.WithLogLevel(util.LogLevel("authority")),
		staticauthority.WithMonitor(authorityMonitor),
		staticauthority.WithAuthority(initial),
	)
}

func startCache(ctx context.Context, monitor metrics.Service, authoritySvc authority.Service) (cache.Service, error) {
	var cacheMonitor metrics.CacheMonitor
	if monitor, isMonitor := monitor.(metrics.CacheMonitor); isMonitor {
		cacheMonitor = monitor
	}
	return lrucache.New(ctx,
		lrucache.WithLogLevel(util.LogLevel("cache")),
		lrucache.WithMonitor(cacheMonitor),
		lrucache.WithAuthority(authoritySvc),
		lrucache.WithCapacity(viper.GetInt("cache.capacity")),
		lrucache.WithTTL(viper.GetDuration("cache.ttl")),
	)
}

func startGenerator(ctx context.Context, monitor metrics.Service, backendSvc backend.Service, authoritySvc authority.Service) (generator.Service, error) {
	var generatorMonitor metrics.GeneratorMonitor
	if monitor, isMonitor := monitor.(metrics.GeneratorMonitor); isMonitor {
		generatorMonitor = monitor
	}
	return standardgenerator.New(ctx,
		standardgenerator.WithLogLevel(util.LogLevel("generator")),
		standardgenerator.WithMonitor(generatorMonitor),
		standardgenerator.WithBackend(backendSvc),
		standardgenerator.WithAuthority(authoritySvc),
	)
}

func startDispatcher(ctx context.Context, monitor metrics.Service, generatorSvc generator.Service, cacheSvc cache.Service, authoritySvc authority.Service) (dispatcher.Service, error) {
	keyAlgorithm := core.ParseKeyAlgorithm(viper.GetString("certificate.key-algorithm"))
	if keyAlgorithm == core.KeyAlgorithmUnknown {
		return nil, errors.Errorf("unknown key algorithm %q", viper.GetString("certificate.key-algorithm"))
	}
	var dispatcherMonitor metrics.DispatcherMonitor
	if monitor, isMonitor := monitor.(metrics.DispatcherMonitor); isMonitor {
		dispatcherMonitor = monitor
	}
	return pooleddispatcher.New(ctx,
		pooleddispatcher.WithLogLevel(util.LogLevel("dispatcher")),
		pooleddispatcher.WithMonitor(dispatcherMonitor),
		pooleddispatcher.WithGenerator(generatorSvc),
		pooleddispatcher.WithCache(cacheSvc),
		pooleddispatcher.WithAuthority(authoritySvc),
		pooleddispatcher.WithKeyAlgorithm(keyAlgorithm),
		pooleddispatcher.WithWorkers(viper.GetInt("dispatcher.workers")),
		pooleddispatcher.WithQueueDepth(viper.GetInt("dispatcher.queue-depth")),
		pooleddispatcher.WithEnqueueTimeout(viper.GetDuration("dispatcher.enqueue-timeout")),
		pooleddispatcher.WithRequestTimeout(viper.GetDuration("dispatcher.request-timeout")),
	)
}

func startIdentity(ctx context.Context, monitor metrics.Service, cacheSvc cache.Service, dispatcherSvc dispatcher.Service) (identity.Service, error) {
	var identityMonitor metrics.IdentityMonitor
	if monitor, isMonitor := monitor.(metrics.IdentityMonitor); isMonitor {
		identityMonitor = monitor
	}
	return standardidentity.New(ctx,
		standardidentity.WithLogLevel(util.LogLevel("identity")),
		standardidentity.WithMonitor(identityMonitor),
		standardidentity.WithCache(cacheSvc),
		standardidentity.WithDispatcher(dispatcherSvc),
	)
}

func startReloader(ctx context.Context, majordomo majordomo.Service, monitor metrics.Service, backendSvc backend.Service, authoritySvc authority.Service) (reloader.Service, error) {
	var authorityMonitor metrics.AuthorityMonitor
	if monitor, isMonitor := monitor.(metrics.AuthorityMonitor); isMonitor {
		authorityMonitor = monitor
	}
	return standardreloader.New(ctx,
		standardreloader.WithLogLevel(util.LogLevel("reloader")),
		standardreloader.WithMonitor(authorityMonitor),
		standardreloader.WithBackend(backendSvc),
		standardreloader.WithAuthority(authoritySvc),
		standardreloader.WithMajordomo(majordomo),
		standardreloader.WithCertURI(viper.GetString("authority.cert")),
		standardreloader.WithKeyURI(viper.GetString("authority.key")),
		standardreloader.WithReloadInterval(viper.GetDuration("authority.reload-interval")),
	)
}

// startListener starts the interception listener, handing each handshake to the
// identity provider for certificate selection.
func startListener(ctx context.Context, identitySvc identity.Service) error {
	listenAddress := viper.GetString("server.listen-address")
	listener, err := tls.Listen("tcp", listenAddress, &tls.Config{
		GetCertificate: identitySvc.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	})
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	log.Info().Str("address", listenAddress).Msg("Interception listener active")

	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close listener")
		}
	}()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn().Err(err).Msg("Failed to accept connection")
				continue
			}
			go handleConn(ctx, conn)
		}
	}()

	return nil
}

// handleConn drives the handshake so that certificate issuance happens
// eagerly, then leaves the connection to the proxy data path.
func handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return
	}
	handshakeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
		log.Debug().Err(err).Msg("Handshake failed")
		return
	}
	log.Trace().Str("server_name", tlsConn.ConnectionState().ServerName).Msg("Handshake complete")
}

func startMonitor(ctx context.Context) (metrics.Service, error) {
	log.Trace().Msg("Starting metrics service")
	var monitor metrics.Service
	var err error
	if viper.GetString("metrics.listen-address") == "" {
		log.Debug().Msg("No metrics listen address supplied; monitor not starting")
		return nil, nil
	}
	monitor, err = prometheusmetrics.New(ctx,
		prometheusmetrics.WithLogLevel(util.LogLevel("metrics")),
		prometheusmetrics.WithAddress(viper.GetString("metrics.listen-address")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start metrics service")
	}
	return monitor, nil
}

// setBuild turns the release version in to a number and reports it to the monitor.
func setBuild(monitor metrics.Service, version string) {
	buildMonitor, isMonitor := monitor.(metrics.BaseMonitor)
	if !isMonitor {
		return
	}
	version = strings.SplitN(version, "-", 2)[0]
	build := uint64(0)
	for _, part := range strings.Split(version, ".") {
		value, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return
		}
		build = build*1000 + value
	}
	buildMonitor.Build(build)
}

func setReady(monitor metrics.Service, ready bool) {
	readyMonitor, isMonitor := monitor.(metrics.ReadyMonitor)
	if !isMonitor {
		return
	}
	readyMonitor.Ready(ready)
}

func logModules() {
	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		log.Trace().Str("path", buildInfo.Path).Msg("Main package")
		for _, dep := range buildInfo.Deps {
			log := log.Trace()
			if dep.Replace == nil {
				log = log.Str("path", dep.Path).Str("version", dep.Version)
			} else {
				log = log.Str("path", dep.Replace.Path).Str("version", dep.Replace.Version)
			}
			log.Msg("Dependency")
		}
	}
}
