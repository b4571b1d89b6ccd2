package config

import "docmatch/internal/variance"

const (
	defaultConfigPath   = "~/.config/docmatch/config.toml"
	projectConfigName   = "docmatch.toml"
	defaultDataDir      = "~/.local/share/docmatch"
	defaultLogDir       = "~/.local/share/docmatch/logs"
	defaultAPIBind      = "127.0.0.1:7488"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	defaultLogRetention = 30
	defaultPageSize     = 20
	defaultWorkers      = 4
	defaultPollInterval = 30
	databaseFileName    = "docmatch.db"
	lockFileName        = "docmatch.lock"
	logFileName         = "docmatch.log"
	apiTokenEnv         = "DOCMATCH_API_TOKEN"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	policy := variance.DefaultPolicy()
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetention,
		},
		Variance: Variance{
			LineItemMatchThreshold: policy.LineItemMatchThreshold,
			QuantityKind:           string(policy.Quantity.Kind),
			QuantityTolerance:      policy.Quantity.Value,
			UnitPriceKind:          string(policy.UnitPrice.Kind),
			UnitPriceTolerance:     policy.UnitPrice.Value,
			TotalAmountKind:        string(policy.TotalAmount.Kind),
			TotalAmountTolerance:   policy.TotalAmount.Value,
		},
		Queue: Queue{
			PageSize: defaultPageSize,
		},
		Workflow: Workflow{
			Workers:      defaultWorkers,
			PollInterval: defaultPollInterval,
		},
		policy: policy,
	}
}
