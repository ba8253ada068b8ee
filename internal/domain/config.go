package domain

// Config holds the complete Linesight configuration.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Rules     RulesConfig     `json:"rules" yaml:"rules"`
	Predictor PredictorConfig `json:"predictor" yaml:"predictor"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Tracing   TracingConfig   `json:"tracing" yaml:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host" yaml:"host"`
	Port         int    `json:"port" yaml:"port"`
	ReadTimeout  int    `json:"readTimeout" yaml:"read_timeout"`   // seconds
	WriteTimeout int    `json:"writeTimeout" yaml:"write_timeout"` // seconds
}

// Thresholds are the numeric rule thresholds, derived from master data and
// domain knowledge.
type Thresholds struct {
	MachineUptimeCritical    float64 `json:"machineUptimeCritical" yaml:"machine_uptime_critical"`
	MachineUptimeWatch       float64 `json:"machineUptimeWatch" yaml:"machine_uptime_watch"`
	InventoryCritical        float64 `json:"inventoryCritical" yaml:"inventory_critical"`
	InventoryWatch           float64 `json:"inventoryWatch" yaml:"inventory_watch"`
	WorkerAvailabilityTarget float64 `json:"workerAvailabilityTarget" yaml:"worker_availability_target"`
	DefectRateMax            float64 `json:"defectRateMax" yaml:"defect_rate_max"`
	DemandSpikeSigma         float64 `json:"demandSpikeSigma" yaml:"demand_spike_sigma"`
	// DemandSigmaFloor guards the spike check against near-zero-variance
	// demand series. Zero disables the floor.
	DemandSigmaFloor    float64 `json:"demandSigmaFloor" yaml:"demand_sigma_floor"`
	OverloadUtilization float64 `json:"overloadUtilization" yaml:"overload_utilization"`
	ShortageFraction    float64 `json:"shortageFraction" yaml:"shortage_fraction"`
}

// RulesConfig configures the rule engine: thresholds plus optional CEL
// predicate overrides keyed by check family name.
type RulesConfig struct {
	Thresholds  Thresholds        `json:"thresholds" yaml:"thresholds"`
	Expressions map[string]string `json:"expressions,omitempty" yaml:"expressions"`
}

// PredictorConfig configures the prediction layer.
type PredictorConfig struct {
	// TrainingDataPath points at a JSON array of plant records used to
	// train the models once at startup. Empty skips training and the
	// predictor serves heuristic fallbacks.
	TrainingDataPath string `json:"trainingDataPath" yaml:"training_data_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	ServiceName string `json:"serviceName" yaml:"service_name"`
}

// DefaultThresholds returns the documented default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MachineUptimeCritical:    75.0,
		MachineUptimeWatch:       85.0,
		InventoryCritical:        70.0,
		InventoryWatch:           80.0,
		WorkerAvailabilityTarget: 92.0,
		DefectRateMax:            2.0,
		DemandSpikeSigma:         2.0,
		DemandSigmaFloor:         0,
		OverloadUtilization:      95.0,
		ShortageFraction:         0.3,
	}
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Rules: RulesConfig{
			Thresholds: DefaultThresholds(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "linesight",
		},
	}
}
