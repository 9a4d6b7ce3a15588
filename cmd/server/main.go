package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/openmined/filedrop/internal/server"
	"github.com/openmined/filedrop/internal/server/localstore"
	"github.com/openmined/filedrop/internal/server/metadata"
	"github.com/openmined/filedrop/internal/server/remote"
	"github.com/openmined/filedrop/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "FILEDROP"
	configFileName = "filedrop"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "filedrop",
		Short:   "FileDrop upload server",
		Version: version.Detailed(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			level, _ := server.ParseLogLevel(cfg.LogLevel)
			setupLogger(level)

			cmd.SilenceUsage = true

			srv, err := server.New(cfg)
			if err != nil {
				return err
			}

			defer slog.Info("Bye!")
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringP("config", "c", "", "path to a yaml or json config file")
	cmd.Flags().StringP("bind", "b", server.DefaultAddr, "address to bind the server")
	cmd.Flags().StringP("upload-dir", "d", server.DefaultUploadDir, "directory that holds uploaded files")
	cmd.Flags().String("log-level", server.DefaultLogLevel, "log level: debug, info, warn or error")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func main() {
	// a missing .env is the normal case
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	setupLogger(slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func setupLogger(level slog.Level) {
	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(handler))
}

// loadConfig merges defaults, the config file, FILEDROP_* environment
// variables and flags, in increasing order of precedence.
func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	v := viper.New()
	setDefaults(v)

	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		v.SetConfigFile(configFilePath)
	} else {
		home, _ := os.UserHomeDir()
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".config", "filedrop"))
		v.SetConfigName(configFileName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// the conventional names for the github credentials work too
	_ = v.BindEnv("remote.github.repo", envPrefix+"_REMOTE_GITHUB_REPO", "GITHUB_REPO")
	_ = v.BindEnv("remote.github.token", envPrefix+"_REMOTE_GITHUB_TOKEN", "GITHUB_TOKEN")

	_ = v.BindPFlag("http.addr", cmd.Flags().Lookup("bind"))
	_ = v.BindPFlag("storage.upload_dir", cmd.Flags().Lookup("upload-dir"))
	_ = v.BindPFlag("log_level", cmd.Flags().Lookup("log-level"))

	cfg := &server.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", server.DefaultAddr)
	v.SetDefault("http.cert_file", "")
	v.SetDefault("http.key_file", "")
	v.SetDefault("http.rate_limit", server.DefaultRateLimit)
	v.SetDefault("http.max_multipart_memory", server.DefaultMaxMultipartMemory)

	v.SetDefault("storage.upload_dir", server.DefaultUploadDir)
	v.SetDefault("storage.metadata_backend", metadata.BackendJSON)
	v.SetDefault("storage.max_upload_size", 0)
	v.SetDefault("storage.max_video_size", localstore.DefaultMaxVideoSize)
	v.SetDefault("storage.allowed_extensions", localstore.DefaultAllowedExtensions)

	v.SetDefault("remote.backend", remote.BackendGitHub)
	v.SetDefault("remote.folder", remote.DefaultFolder)
	v.SetDefault("remote.github.repo", "")
	v.SetDefault("remote.github.token", "")
	v.SetDefault("remote.github.branch", remote.DefaultBranch)
	v.SetDefault("remote.github.api_url", remote.DefaultGitHubAPI)
	v.SetDefault("remote.s3.bucket_name", "")
	v.SetDefault("remote.s3.region", "")
	v.SetDefault("remote.s3.endpoint", "")
	v.SetDefault("remote.s3.access_key", "")
	v.SetDefault("remote.s3.secret_key", "")

	v.SetDefault("log_level", server.DefaultLogLevel)
}
