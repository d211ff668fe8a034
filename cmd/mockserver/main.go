package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-cowork-client/internal/config"
	"github.com/jrsteele09/go-cowork-client/internal/fakebackend"
	"github.com/jrsteele09/go-cowork-client/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	configPath := flag.String("config", "", "optional YAML config file")
	seedEmail := flag.String("seed-email", "demo@cowork.local", "email of the seeded member (empty to skip)")
	seedPassword := flag.String("seed-password", "demo", "password of the seeded member")
	otpCode := flag.String("otp", "", "fixed one-time code (random when empty)")
	flag.Parse()

	if err := run(*addr, *configPath, *seedEmail, *seedPassword, *otpCode); err != nil {
		log.Fatal().Err(err).Msg("mock server stopped")
	}
	log.Info().Msg("Server stopped")
}

func run(addr, configPath, seedEmail, seedPassword, otpCode string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.Setup(c.GetLogLevel(), os.Stderr)
	displayAppname(c.GetAppName() + " mock")

	options := []fakebackend.Option{fakebackend.WithLogger(logger)}
	if otpCode != "" {
		options = append(options, fakebackend.WithOTPCode(otpCode))
	}
	backend := fakebackend.New(options...)
	if seedEmail != "" {
		if _, err := backend.AddMember("Demo Member", seedEmail, seedPassword, fakebackend.RoleMember); err != nil {
			return err
		}
		logger.Info().Str("email", seedEmail).Msg("Seeded member")
	}

	// serve under the base URL's path so the client config works unchanged
	prefix := ""
	if base, err := url.Parse(c.GetBaseURL()); err == nil {
		prefix = base.Path
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           http.StripPrefix(prefix, backend.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(server, prefix)
	}()
	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server, prefix string) error {
	log.Info().Str("addr", server.Addr).Str("prefix", prefix).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
