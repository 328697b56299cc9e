package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DB_PASSWORD", "s3cret")

			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			assert.Equal(t, 8080, cfg.Server.Port)
			assert.Equal(t, DriverPostgres, cfg.Database.Driver)
			assert.Equal(t, "s3cret", cfg.Database.Password)
			assert.True(t, cfg.Database.AutoMigrate)
			assert.Equal(t, "inspection_jobs", cfg.Database.Database)
			assert.Equal(t, "inspection_exchange", cfg.RabbitMQ.Exchange.Name)
			assert.Equal(t, "job_triggers", cfg.RabbitMQ.Queue.Name)
			assert.Equal(t, 2, cfg.RabbitMQ.Consumer.PrefetchCount)
			assert.Equal(t, "inspection-jobs-api", cfg.App.Name)
			assert.Equal(t, "notifications.send", cfg.Notifications.RoutingKey)
			assert.Equal(t, 5*time.Second, cfg.Export.Timeout)

			// explicit values win over defaults
			assert.Equal(t, 5, cfg.Queue.DefaultBatchSize)
			assert.Equal(t, 50, cfg.Queue.MaxBatchSize)
			assert.Equal(t, 45*time.Minute, cfg.Queue.StuckThreshold)

			// omitted values fall back to defaults
			assert.Equal(t, 3, cfg.Queue.DefaultMaxRetries)
			assert.Equal(t, 24*time.Hour, cfg.Queue.RecentWindow)
			assert.Equal(t, 100, cfg.Queue.RecentLimit)
			assert.Equal(t, 30*time.Second, cfg.Worker.ShutdownTimeout)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Queue.DefaultBatchSize)
	assert.Equal(t, 100, cfg.Queue.MaxBatchSize)
	assert.Equal(t, 3, cfg.Queue.DefaultMaxRetries)
	assert.Equal(t, 30*time.Minute, cfg.Queue.StuckThreshold)
	assert.Equal(t, 24*time.Hour, cfg.Queue.RecentWindow)
	assert.Equal(t, 100, cfg.Queue.RecentLimit)
	assert.Equal(t, 1, cfg.Worker.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 30*time.Second, cfg.Export.Timeout)
}

func validAPIConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "inspection_jobs",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			Exchange: ExchangeConfig{Name: "inspection_exchange"},
			Queue:    QueueConfig{Name: "job_triggers"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "invalid server port - too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			errString: "invalid server port",
		},
		{
			name:      "invalid server port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			errString: "invalid server port",
		},
		{
			name:      "empty database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			errString: "database host is required",
		},
		{
			name:      "empty database name",
			mutate:    func(c *Config) { c.Database.Database = "" },
			errString: "database name is required",
		},
		{
			name: "memory driver skips database settings",
			mutate: func(c *Config) {
				c.Database = DatabaseConfig{Driver: DriverMemory}
			},
		},
		{
			name:      "unknown driver",
			mutate:    func(c *Config) { c.Database.Driver = "sqlite" },
			errString: "unsupported database driver",
		},
		{
			name:      "empty rabbitmq host",
			mutate:    func(c *Config) { c.RabbitMQ.Host = "" },
			errString: "rabbitmq host is required",
		},
		{
			name:      "invalid rabbitmq port",
			mutate:    func(c *Config) { c.RabbitMQ.Port = -1 },
			errString: "invalid rabbitmq port",
		},
		{
			name:      "empty exchange name",
			mutate:    func(c *Config) { c.RabbitMQ.Exchange.Name = "" },
			errString: "rabbitmq exchange name is required",
		},
		{
			name:      "empty queue name",
			mutate:    func(c *Config) { c.RabbitMQ.Queue.Name = "" },
			errString: "rabbitmq queue name is required",
		},
		{
			name:      "default batch above max batch",
			mutate:    func(c *Config) { c.Queue.DefaultBatchSize = 200 },
			errString: "exceeds max_batch_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAPIConfig()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()
			if tt.errString == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errString)
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validAPIConfig().ValidateWorkerConfig())
	})

	t.Run("server port is not required", func(t *testing.T) {
		cfg := validAPIConfig()
		cfg.Server.Port = 0
		assert.NoError(t, cfg.ValidateWorkerConfig())
	})

	t.Run("memory driver rejected", func(t *testing.T) {
		cfg := validAPIConfig()
		cfg.Database.Driver = DriverMemory
		err := cfg.ValidateWorkerConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires the postgres driver")
	})

	t.Run("zero concurrency", func(t *testing.T) {
		cfg := validAPIConfig()
		cfg.Worker.Concurrency = 0
		err := cfg.ValidateWorkerConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "worker concurrency must be greater than 0")
	})
}

func TestLoad_ValidateIntegration(t *testing.T) {
	t.Run("load config with invalid port", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("load config with missing database", func(t *testing.T) {
		cfg, err := Load("testdata/missing_database.yaml")
		require.NoError(t, err)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database name is required")
	})

	t.Run("load memory store config", func(t *testing.T) {
		cfg, err := Load("testdata/memory_store.yaml")
		require.NoError(t, err)
		assert.Equal(t, DriverMemory, cfg.Database.Driver)
		assert.NoError(t, cfg.ValidateAPIConfig())
	})
}

func TestClientConfigs(t *testing.T) {
	cfg := validAPIConfig()
	cfg.RabbitMQ.RoutingKey = "jobs.process"
	cfg.RabbitMQ.Publish = PublishConfig{RetryAttempts: 4, RetryInterval: time.Second, BackoffMultiplier: 1.5}
	cfg.Logging = LoggingConfig{Level: "warn", Format: "json", EnableCaller: true}

	rc := cfg.RabbitMQ.ClientConfig()
	assert.Equal(t, "job_triggers", rc.QueueName)
	assert.Equal(t, "jobs.process", rc.RoutingKey)
	assert.Equal(t, 4, rc.PublishRetries)
	assert.Equal(t, 1.5, rc.PublishBackoffMult)

	dc := cfg.Database.ClientConfig()
	assert.Equal(t, "inspection_jobs", dc.Database)
	assert.Equal(t, 5432, dc.Port)

	lc := cfg.Logging.LoggerConfig()
	assert.Equal(t, "warn", lc.Level)
	assert.True(t, lc.EnableSource)
}
