package main

import (
	"os"
	"sync"

	"github.com/spf13/viper"
)

type SearchConfig struct {
	MaxDepth    int `json:"max_depth"`
	TimeLimitMs int `json:"time_limit_ms"`
	// Reserved: one search invocation stays single-threaded.
	UseMultithreading bool `json:"use_multithreading"`
}

type MCTSConfig struct {
	SimulationCount      int     `json:"simulation_count"`
	SimulationSteps      int     `json:"simulation_steps"`
	ExpandNodes          int     `json:"expand_nodes"`
	MinWinRateThreshold  float64 `json:"min_win_rate_threshold"`
	UcbConstant          float64 `json:"ucb_constant"`
	DirichletEpsilon     float64 `json:"dirichlet_epsilon"`
	MaxTranspositionSize int     `json:"max_transposition_size"`
	RolloutTopK          int     `json:"rollout_top_k"`
	Seed                 uint64  `json:"seed"`
}

const (
	StrategyAuto        = ""
	StrategyTraditional = "traditional"
	StrategyDeep        = "deep"
)

type Config struct {
	Search   SearchConfig      `json:"search"`
	MCTS     MCTSConfig        `json:"mcts"`
	Weights  EvaluationWeights `json:"weights"`
	Strategy string            `json:"strategy"`
}

func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			MaxDepth:    4,
			TimeLimitMs: 2000,
		},
		MCTS:     DefaultMCTSConfig(),
		Weights:  DefaultWeights(),
		Strategy: StrategyAuto,
	}
}

func DefaultMCTSConfig() MCTSConfig {
	return MCTSConfig{
		SimulationCount:      200,
		SimulationSteps:      8,
		ExpandNodes:          12,
		MinWinRateThreshold:  0.1,
		UcbConstant:          1.4,
		DirichletEpsilon:     0.25,
		MaxTranspositionSize: 50000,
		RolloutTopK:          6,
		Seed:                 1,
	}
}

// adaptSearchConfig applies the late-game policy: one extra ply after move
// 24 (capped at 6) and 400ms extra after move 16.
func adaptSearchConfig(cfg SearchConfig, moveNumber int) SearchConfig {
	if moveNumber > 24 && cfg.MaxDepth < 6 {
		cfg.MaxDepth++
	}
	if moveNumber > 16 {
		cfg.TimeLimitMs += 400
	}
	return cfg
}

type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

var configStore = &ConfigStore{config: DefaultConfig()}

func GetConfig() Config {
	return configStore.Get()
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *ConfigStore) Update(newConfig Config) {
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
}

// ServerConfig is the process bootstrap read from an env-style file.
type ServerConfig struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`
	MaxDepth    int    `mapstructure:"AI_MAX_DEPTH"`
	TimeLimitMs int    `mapstructure:"AI_TIME_LIMIT_MS"`
}

func SetupServerConfig(cfgPath string) (*ServerConfig, error) {
	v := viper.New()
	v.SetConfigFile(cfgPath)
	v.SetConfigType("env")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("AI_MAX_DEPTH", 0)
	v.SetDefault("AI_TIME_LIMIT_MS", 0)

	if _, err := os.Stat(cfgPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
