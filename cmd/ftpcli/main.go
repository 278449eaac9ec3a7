// Command ftpcli is a small command-line front end for the ftp package.
// It assembles the client configuration record from an INI file and flags
// (flags win), then drives one facade operation per invocation.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Unknwon/goconfig"
	"github.com/spf13/cobra"

	"github.com/ftplib/ftp"
)

var (
	configPath string
	section    string

	flagHost     string
	flagPort     int
	flagUser     string
	flagPassword string
	flagTimeout  time.Duration
	flagMode     string
	flagActive   bool
	flagStay     bool

	verbose  bool
	progress bool
)

func main() {
	root := &cobra.Command{
		Use:           "ftpcli",
		Short:         "Minimal FTP client",
		Long:          "ftpcli drives a single FTP session: connect, log in, run one operation, quit.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "INI configuration file")
	pf.StringVar(&section, "section", "ftp", "configuration file section to read")
	pf.StringVarP(&flagHost, "host", "H", "", "server host")
	pf.IntVarP(&flagPort, "port", "p", 0, "control-connection port (default 21)")
	pf.StringVarP(&flagUser, "user", "u", "", "username; empty skips login")
	pf.StringVar(&flagPassword, "password", "", "password")
	pf.DurationVar(&flagTimeout, "timeout", 0, "socket timeout (default 90s)")
	pf.StringVar(&flagMode, "mode", "", "transfer mode: binary or ascii (default binary)")
	pf.BoolVar(&flagActive, "active", false, "start with passive mode off")
	pf.BoolVar(&flagStay, "stay", false, "keep the connection open after a rejected login")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log every command and reply")
	pf.BoolVarP(&progress, "progress", "P", false, "print transfer progress")

	root.AddCommand(newPwdCmd(), newGetCmd(), newPutCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ftpcli:", err)
		os.Exit(1)
	}
}

// buildConfig resolves the configuration record: INI file values first,
// then any flag the user actually set.
func buildConfig(cmd *cobra.Command) (ftp.Config, error) {
	var cfg ftp.Config

	if configPath != "" {
		file, err := goconfig.LoadConfigFile(configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", configPath, err)
		}

		cfg.Host = file.MustValue(section, "host", "")
		cfg.Port = file.MustInt(section, "port", 0)
		cfg.User = file.MustValue(section, "user", "")
		cfg.Password = file.MustValue(section, "password", "")
		if secs := file.MustInt(section, "timeout", 0); secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
		mode, err := parseMode(file.MustValue(section, "mode", ""))
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", configPath, err)
		}
		cfg.Mode = mode
		cfg.DisablePassive = !file.MustBool(section, "passive", true)
		cfg.StayOnLoginFailure = file.MustBool(section, "stay_on_login_failure", false)
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = flagHost
	}
	if flags.Changed("port") {
		cfg.Port = flagPort
	}
	if flags.Changed("user") {
		cfg.User = flagUser
	}
	if flags.Changed("password") {
		cfg.Password = flagPassword
	}
	if flags.Changed("timeout") {
		cfg.Timeout = flagTimeout
	}
	if flags.Changed("mode") {
		mode, err := parseMode(flagMode)
		if err != nil {
			return cfg, err
		}
		cfg.Mode = mode
	}
	if flags.Changed("active") {
		cfg.DisablePassive = flagActive
	}
	if flags.Changed("stay") {
		cfg.StayOnLoginFailure = flagStay
	}

	if cfg.Host == "" {
		return cfg, fmt.Errorf("no host configured (use --host or a config file)")
	}

	return cfg, nil
}

// parseMode maps a mode string to a transfer mode. An empty string means
// unset and defers to the library default; anything else unrecognized is
// an error rather than a silent fallback.
func parseMode(s string) (ftp.Mode, error) {
	switch s {
	case "":
		return "", nil
	case "ascii", "a", "A":
		return ftp.ModeASCII, nil
	case "binary", "i", "I":
		return ftp.ModeBinary, nil
	default:
		return "", fmt.Errorf("unknown transfer mode %q (want binary or ascii)", s)
	}
}

// dialReady builds a client from the resolved config and brings the
// session to a usable state.
func dialReady(cmd *cobra.Command) (*ftp.Client, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}

	var options []ftp.Option
	if verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		options = append(options, ftp.WithLogger(logger))
	}

	client, err := ftp.NewClient(cfg, options...)
	if err != nil {
		return nil, err
	}

	if err := client.EnsureReady(); err != nil {
		return nil, err
	}

	return client, nil
}

func newPwdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pwd",
		Short: "Print the server-side working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := dialReady(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			dir, err := client.Pwd()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <remote> <local>",
		Short: "Download a remote file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := dialReady(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			remote, local := args[0], args[1]

			f, err := os.Create(local)
			if err != nil {
				return fmt.Errorf("create %s: %w", local, err)
			}

			var dst = newProgressWriter(cmd, f)

			n, err := client.Get(remote, dst, "")
			closeErr := f.Close()
			if err != nil {
				_ = os.Remove(local)
				return err
			}
			if closeErr != nil {
				_ = os.Remove(local)
				return fmt.Errorf("write %s: %w", local, closeErr)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes\n", remote, n)
			return nil
		},
	}
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <local> <remote>",
		Short: "Upload a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := dialReady(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			local, remote := args[0], args[1]

			f, err := os.Open(local)
			if err != nil {
				return fmt.Errorf("open %s: %w", local, err)
			}
			defer f.Close()

			var src = newProgressReader(cmd, f)

			n, err := client.Put(src, remote, "")
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes\n", remote, n)
			return nil
		},
	}
}

func newProgressWriter(cmd *cobra.Command, f *os.File) io.Writer {
	if !progress {
		return f
	}
	return &ftp.ProgressWriter{
		Writer: f,
		Callback: func(n int64) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\r%d bytes", n)
		},
	}
}

func newProgressReader(cmd *cobra.Command, f *os.File) io.Reader {
	if !progress {
		return f
	}
	return &ftp.ProgressReader{
		Reader: f,
		Callback: func(n int64) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\r%d bytes", n)
		},
	}
}
