package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/bstardust/photo-metadata/pkg/common"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PHOTOMETA_S3_BUCKET
const EnvPrefix = "PHOTOMETA"

// Config represents the application configuration
type Config struct {
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	S3        S3Config      `mapstructure:"s3"`
	Scan      ScanConfig    `mapstructure:"scan"`
	Publish   PublishConfig `mapstructure:"publish"`
	Server    ServerConfig  `mapstructure:"server"`
}

// S3Config represents S3 connection configuration
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Prefix    string `mapstructure:"prefix"`
}

// ScanConfig controls batch inspection
type ScanConfig struct {
	Workers     int   `mapstructure:"workers"`
	MaxFileSize int64 `mapstructure:"max_file_size"`
	AllImages   bool  `mapstructure:"all_images"`
}

// PublishConfig controls sidecar publishing
type PublishConfig struct {
	DryRun       bool          `mapstructure:"dry_run"`
	Resume       bool          `mapstructure:"resume"`
	JournalPath  string        `mapstructure:"journal"`
	SkipExisting bool          `mapstructure:"skip_existing"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr          string        `mapstructure:"addr"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
}

// New creates a new configuration with default values
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "console",
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
		},
		Scan: ScanConfig{
			Workers:     4,
			MaxFileSize: 256 << 20,
		},
		Publish: PublishConfig{
			Resume:       true,
			SkipExisting: true,
			Timeout:      30 * time.Minute,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			MaxUploadSize: 32 << 20,
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  30 * time.Second,
		},
	}
}

// Loader layers defaults, a config file, a .env file, PHOTOMETA_* variables
// and command-line flags, in increasing priority.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader seeded with the defaults from New
func NewLoader() *Loader {
	v := viper.New()
	d := New()

	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("s3.endpoint", d.S3.Endpoint)
	v.SetDefault("s3.region", d.S3.Region)
	v.SetDefault("s3.bucket", d.S3.Bucket)
	v.SetDefault("s3.access_key", d.S3.AccessKey)
	v.SetDefault("s3.secret_key", d.S3.SecretKey)
	v.SetDefault("s3.use_ssl", d.S3.UseSSL)
	v.SetDefault("s3.prefix", d.S3.Prefix)
	v.SetDefault("scan.workers", d.Scan.Workers)
	v.SetDefault("scan.max_file_size", d.Scan.MaxFileSize)
	v.SetDefault("scan.all_images", d.Scan.AllImages)
	v.SetDefault("publish.dry_run", d.Publish.DryRun)
	v.SetDefault("publish.resume", d.Publish.Resume)
	v.SetDefault("publish.journal", d.Publish.JournalPath)
	v.SetDefault("publish.skip_existing", d.Publish.SkipExisting)
	v.SetDefault("publish.timeout", d.Publish.Timeout)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload_size", d.Server.MaxUploadSize)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// BindFlag lets a command-line flag override key when the flag is set
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return common.NewConfigError("no flag to bind for %s", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads the configuration. An empty path searches ./photo-metadata.yaml
// and $HOME/.config/photo-metadata; a missing file is not an error unless
// path was given explicitly. A .env file in the working directory is loaded
// into the environment first when present.
func (l *Loader) Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, common.NewConfigError("failed to read .env: %v", err)
	}

	if path != "" {
		l.v.SetConfigFile(path)
	} else {
		l.v.SetConfigName("photo-metadata")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(home + "/.config/photo-metadata")
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, common.NewConfigError("failed to read config: %v", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, common.NewConfigError("failed to decode config: %v", err)
	}
	return cfg, nil
}

// ConfigFileUsed returns the file Load read, if any
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Validate checks the settings shared by every command
func (c *Config) Validate() error {
	if c.Scan.Workers < 1 {
		return common.NewConfigError("scan workers must be at least 1, got %d", c.Scan.Workers)
	}
	if c.Scan.MaxFileSize < 1 {
		return common.NewConfigError("scan max file size must be positive")
	}
	if c.Server.MaxUploadSize < 1 {
		return common.NewConfigError("server max upload size must be positive")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return common.NewConfigError("log format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// ValidatePublish checks the S3 settings needed to publish sidecars
func (c *Config) ValidatePublish() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.S3.Endpoint == "" {
		return common.NewConfigError("S3 endpoint is required")
	}
	if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
		return common.NewConfigError("S3 access key and secret key are required")
	}
	if err := ValidateS3BucketName(c.S3.Bucket); err != nil {
		return common.NewConfigError("invalid bucket %q: %v", c.S3.Bucket, err)
	}
	return nil
}

// ValidateS3BucketName checks if the provided S3 bucket name is valid according to AWS naming conventions.
func ValidateS3BucketName(bucketName string) error {
	if len(bucketName) < 3 || len(bucketName) > 63 {
		return errors.New("bucket name must be between 3 and 63 characters")
	}
	if strings.Contains(bucketName, " ") {
		return errors.New("bucket name cannot contain spaces")
	}
	if !isDNSCompatible(bucketName) {
		return errors.New("bucket name must be DNS compliant")
	}
	if strings.HasPrefix(bucketName, "-") || strings.HasSuffix(bucketName, "-") {
		return errors.New("bucket name must start and end with a letter or number")
	}
	return nil
}

// isDNSCompatible checks if the bucket name is DNS compliant.
func isDNSCompatible(name string) bool {
	for _, char := range name {
		if !(char >= 'a' && char <= 'z') && !(char >= '0' && char <= '9') && char != '-' && char != '.' {
			return false
		}
	}
	return true
}
