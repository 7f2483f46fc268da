// Package config parses the command line flags and ENVs of the "recoder" tool.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/simplecsv/recoder/internal/pkg/apperr"
	"github.com/simplecsv/recoder/internal/pkg/csv"
	"github.com/simplecsv/recoder/internal/pkg/recoder"
	recoderConfig "github.com/simplecsv/recoder/internal/pkg/recoder/config"
)

const (
	ENVPrefix = "RECODER"
	usageText = `Usage of "recoder".

  The tool reads a CSV table and writes it out in a different dialect.
  A dialect is the combination of a delimiter, an enclosure and a line terminator.

  Input and output table:
    --table-name
        Table name for logging purposes.
    --table-input-path
        Path to the input CSV file, it may be gzipped (".gz" suffix).
    --table-input-dialect-path
        Path to the dialect file of the input table.
        It is used to get "delimiter", "enclosure" and "newline" fields, if any.
        It can be omitted if the table does not have a dialect file.
    --table-output-path
        Path where the output CSV file will be written.
        The parent directory must exist.
    --table-output-dialect-path
        Path where the output dialect file will be written.
        It is a copy of the input dialect file with the output dialect set.


  Environment variables:
    Each flag can be specified via an env variable with the "RECODER_" prefix.
    For example --output-delimiter flag can be specified via RECODER_OUTPUT_DELIMITER env.
    Additional variables can be loaded from a dotenv file via the --env-file flag.


  All flags:
`
)

type Config struct {
	recoder.Table  `json:"table"  mapstructure:",squash"`
	Help           bool              `json:"help" mapstructure:"help"`
	EnvFile        string            `json:"envFile" mapstructure:"env-file"`
	DumpConfig     bool              `json:"dumpConfig" mapstructure:"dump-config"`
	MemoryLimit    datasize.ByteSize `validate:"required" json:"memoryLimit" mapstructure:"memory-limit"`
	CPUProfileFile string            `json:"cpuProfile" mapstructure:"cpuprofile"`
}

func Default() Config {
	cfg := Config{}
	cfg.Config = recoderConfig.Default()
	cfg.MemoryLimit = 512 * datasize.MB
	return cfg
}

func Parse(args []string) (Config, error) {
	cfg := Default()

	// Parse flags
	f := flags()
	if err := f.Parse(args); err != nil {
		return cfg, fmt.Errorf("cannot parse flags: %w", err)
	}

	// Load additional ENVs from a dotenv file, if any
	if envFile, _ := f.GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return cfg, fmt.Errorf(`cannot load the env file "%s": %w`, envFile, err)
		}
	}

	// Define mapstructure hooks
	hooks := viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)

	// Bind flags to the config structure
	binder := viper.New()
	binder.AutomaticEnv()
	binder.SetEnvPrefix(ENVPrefix)
	binder.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := binder.BindPFlags(f); err != nil {
		return cfg, fmt.Errorf("cannot bind flags: %w", err)
	}
	if err := binder.Unmarshal(&cfg, hooks); err != nil {
		return cfg, fmt.Errorf("cannot unmarshal flags: %w", err)
	}

	// Print usage instead of validation, if the help flag is set
	if cfg.Help {
		return cfg, pflag.ErrHelp
	}

	// Create validator
	v := validator.New()

	// Register fields naming function
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]; name != "" && name != "-" {
			return name
		}
		if name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]; name != "" && name != "-" {
			return name
		}
		return ""
	})

	// Setup translator
	lang := en.New()
	trans, _ := ut.New(lang, lang).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return cfg, err
	}
	if err := trans.Add("required", `{0} is a required flag`, true); err != nil {
		return cfg, err
	}

	// Validate config
	if err := v.Struct(cfg); err != nil {
		var valErrs validator.ValidationErrors
		if errors.As(err, &valErrs) {
			// Generate better error messages via translator
			var b strings.Builder
			for _, item := range valErrs {
				b.WriteString("\n")
				b.WriteString("- ")
				b.WriteString(item.Translate(trans))
			}
			err = errors.New(b.String())
		}
		return cfg, apperr.UserErrorf(`configuration is not valid:%w`, err)
	}

	return cfg, nil
}

func Usage() string {
	var b strings.Builder
	b.WriteString(usageText)
	b.WriteString(flags().FlagUsages())
	b.WriteString("\n")
	return b.String()
}

func flags() *pflag.FlagSet {
	cfg := Default()
	newlines := fmt.Sprintf(
		`%s, %s, or %s`,
		csv.NewlineLF.String(),
		csv.NewlineCRLF.String(),
		csv.NewlineCustom.String(),
	)

	f := pflag.NewFlagSet("recoder", pflag.ContinueOnError)
	f.Bool("help", false, "Print help.")
	f.String("env-file", cfg.EnvFile, "Load additional ENVs from the specified dotenv file.")
	f.String("memory-limit", cfg.MemoryLimit.String(), "Soft memory limit, GOMEMLIMIT.")
	f.Bool("dump-config", cfg.DumpConfig, "Print all parameters to the STDOUT.")
	f.String("cpuprofile", cfg.CPUProfileFile, "Write the CPU profile to the specified file.")

	f.String("table-name", cfg.Name, "Table name for logging purposes.")
	f.String("table-input-path", cfg.InPath, "Path to the input CSV file.")
	f.String("table-input-dialect-path", cfg.InDialectPath, "Path to the dialect file describing the input table, if any.")
	f.String("table-output-path", cfg.OutPath, "Path where the output CSV file will be written.")
	f.String("table-output-dialect-path", cfg.OutDialectPath, "Path where the output dialect file will be written.")

	f.String("input-delimiter", cfg.InputDelimiter, "Field delimiter of the input table, used if there is no dialect file.")
	f.String("input-enclosure", cfg.InputEnclosure, "Quoting character of the input table, used if there is no dialect file.")
	f.String("output-delimiter", cfg.OutputDelimiter, "Field delimiter of the output table.")
	f.String("output-enclosure", cfg.OutputEnclosure, "Quoting character of the output table.")
	f.String("output-newline", cfg.OutputNewline.String(), "Line terminator of the output table: "+newlines+".")
	f.String("output-custom-newline", cfg.OutputCustomNewline, `Line terminator for the "custom" style.`)

	f.Float64("log-interval-multiplier", cfg.LogInterval.Multiplier, `Log interval multiplier.`)
	f.Duration("log-interval-initial", cfg.LogInterval.Initial, `Initial log interval.`)
	f.Duration("log-interval-maximum", cfg.LogInterval.Maximum, `Maximum log interval.`)

	f.Bool("gzip", cfg.Gzip, "Enable gzip compression for the output table.")
	f.Int("gzip-level", cfg.GzipLevel, "GZIP compression level, range: 1 best speed - 9 best compression.")
	f.Uint32("gzip-concurrency", cfg.GzipConcurrency, "Number of parallel processed gzip blocks, 0 means the number of CPU threads.")
	f.String("gzip-block-size", cfg.GzipBlockSize.String(), "Size of the one gzip block; allocated memory = concurrency * block size.")
	f.String("buffer-size", cfg.BufferSize.String(), "Output buffer size when gzip compression is disabled.")

	return f
}
