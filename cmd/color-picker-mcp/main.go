package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/muesli/termenv"

	"github.com/ironsheep/color-picker-mcp/internal/config"
	"github.com/ironsheep/color-picker-mcp/internal/dom"
	"github.com/ironsheep/color-picker-mcp/internal/logging"
	"github.com/ironsheep/color-picker-mcp/internal/resolve"
	"github.com/ironsheep/color-picker-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// stdout is reserved for the MCP protocol
	level := logging.ParseLevel(os.Getenv(config.EnvLogLevel), slog.LevelWarn)
	logging.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	fs := flag.NewFlagSet("color-picker-mcp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a config file (yaml, toml or json)")
	showVersion := fs.Bool("version", false, "print version information")
	fs.BoolVar(showVersion, "v", false, "print version information")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "color-picker-mcp %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return 0
	}

	settings, path, err := config.Resolve(*configPath, os.Getenv)
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}
	if path != "" {
		logging.Logger().Info("config loaded", "path", path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server.Version = Version
	srv := server.New(settings)

	rest := fs.Args()
	if len(rest) > 0 && rest[0] == "resolve" {
		return resolveCommand(ctx, srv, rest[1:], stdout, stderr)
	}
	if len(rest) > 0 {
		fmt.Fprintf(stderr, "unknown command: %s\n", rest[0])
		usage(stderr)
		return 2
	}

	logging.Logger().Info("color picker MCP server starting", "version", Version, "commit", GitCommit)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "server error: %v\n", err)
		return 1
	}
	return 0
}

// resolveCommand prints the color at a position of a page.
func resolveCommand(ctx context.Context, srv *server.Server, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	backend := fs.String("backend", server.BackendStatic, "document backend: static or browser")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 3 {
		fmt.Fprintln(stderr, "usage: color-picker-mcp resolve [--backend static|browser] <page> <x> <y>")
		return 2
	}
	x, errX := strconv.ParseFloat(fs.Arg(1), 64)
	y, errY := strconv.ParseFloat(fs.Arg(2), 64)
	if err := errors.Join(errX, errY); err != nil {
		fmt.Fprintf(stderr, "invalid position: %v\n", err)
		return 2
	}

	r, err := srv.ResolveSource(ctx, fs.Arg(0), *backend, dom.Position{X: x, Y: y})
	if err != nil {
		fmt.Fprintf(stderr, "resolve failed: %v\n", err)
		return 1
	}
	printResolution(termenv.NewOutput(stdout), r)
	return 0
}

// printResolution writes a colored swatch followed by the color forms.
// Profiles without color support print the text alone.
func printResolution(out *termenv.Output, r resolve.Resolution) {
	swatch := out.String("      ").Background(out.Color(r.Color.Hex()))
	fmt.Fprintf(out, "%s %s\n", swatch, r.Color.Hex())
	fmt.Fprintf(out, "  rgb:      %s\n", r.Color.RGBString())
	fmt.Fprintf(out, "  hsl:      %s\n", r.Color.HSLString())
	strategy := string(r.Strategy)
	if r.Rule != "" {
		strategy += " (" + r.Rule + ")"
	}
	fmt.Fprintf(out, "  strategy: %s\n", strategy)
	if r.Element != "" {
		fmt.Fprintf(out, "  element:  %s\n", r.Element)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "color-picker-mcp - MCP server that resolves the color at a point of a page")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  color-picker-mcp [options]                     serve MCP over stdin/stdout")
	fmt.Fprintln(w, "  color-picker-mcp [options] resolve <page> <x> <y>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --config PATH    Config file (default: $XDG_CONFIG_HOME/color-picker-mcp/config.*)")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug    Enable debug logging\n", config.EnvLogLevel)
	fmt.Fprintf(w, "  %s, %s, %s, %s, %s, %s, %s\n",
		config.EnvConfig, config.EnvLoadTimeout, config.EnvHeadless, config.EnvNative,
		config.EnvBackgroundImages, config.EnvBrowser, config.EnvViewport)
}
