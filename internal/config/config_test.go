package config

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var (
		tempDir    string
		configFile string
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test")
		Expect(err).NotTo(HaveOccurred())
		configFile = filepath.Join(tempDir, "config.yaml")
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("when config file exists with valid content", func() {
			BeforeEach(func() {
				validConfig := `
authority:
  base_url: "https://authority.example.test"

rate_limit:
  per_minute: 120
  burst: 40

batch:
  size: 25

job:
  sync_threshold_bytes: 4000

worker:
  concurrency: 8

logging:
  level: "debug"
  format: "console"

alternate_sources:
  - name: "courtlistener_mirror"
    base_url: "https://mirror.example.test"
`
				err := os.WriteFile(configFile, []byte(validConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load configuration successfully", func() {
				cfg, err := Load(configFile)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())

				Expect(cfg.Authority.BaseURL).To(Equal("https://authority.example.test"))
				Expect(cfg.RateLimit.PerMinute).To(Equal(120))
				Expect(cfg.RateLimit.Burst).To(Equal(40))
				Expect(cfg.Batch.Size).To(Equal(25))
				Expect(cfg.Job.SyncThresholdBytes).To(Equal(4000))
				Expect(cfg.Worker.Concurrency).To(Equal(8))
				Expect(cfg.Logging.Level).To(Equal("debug"))
				Expect(cfg.Logging.Format).To(Equal("console"))

				Expect(cfg.AlternateSources).To(HaveLen(1))
				Expect(cfg.AlternateSources[0].Name).To(Equal("courtlistener_mirror"))
				Expect(cfg.AlternateSources[0].BaseURL).To(Equal("https://mirror.example.test"))
			})
		})

		Context("when config file has minimal content", func() {
			BeforeEach(func() {
				minimalConfig := `
authority:
  base_url: "https://authority.example.test"
`
				err := os.WriteFile(configFile, []byte(minimalConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load with defaults for missing values", func() {
				cfg, err := Load(configFile)
				Expect(err).NotTo(HaveOccurred())

				Expect(cfg.Authority.BaseURL).To(Equal("https://authority.example.test"))
				Expect(cfg.RateLimit.PerMinute).To(Equal(180))
				Expect(cfg.RateLimit.Burst).To(Equal(50))
				Expect(cfg.Batch.Size).To(Equal(50))
				Expect(cfg.Job.SyncThresholdBytes).To(Equal(5000))
				Expect(cfg.Job.TTL).To(Equal(86400 * time.Second))
				Expect(cfg.Logging.Level).To(Equal("info"))
			})
		})

		Context("when config file does not exist", func() {
			It("should return an error", func() {
				_, err := Load(filepath.Join(tempDir, "missing.yaml"))
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to read config file"))
			})
		})

		Context("when config file has invalid YAML", func() {
			BeforeEach(func() {
				invalidConfig := `
authority:
  base_url: [
rate_limit:
  per_minute: 10
`
				err := os.WriteFile(configFile, []byte(invalidConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return an error", func() {
				_, err := Load(configFile)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to parse config file"))
			})
		})

		Context("when the authority base URL is missing", func() {
			BeforeEach(func() {
				err := os.WriteFile(configFile, []byte("rate_limit:\n  per_minute: 60\n"), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return a validation error", func() {
				_, err := Load(configFile)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("authority base URL is required"))
			})
		})
	})

	Describe("validate", func() {
		var cfg *Config

		BeforeEach(func() {
			cfg = &Config{
				Authority: AuthorityConfig{BaseURL: "https://authority.example.test"},
				RateLimit: RateLimitConfig{PerMinute: 180, Burst: 50},
				Batch:     BatchConfig{Size: 50},
				Job:       JobConfig{TTL: 86400 * time.Second, SyncThresholdBytes: 5000},
				Worker:    WorkerConfig{Concurrency: 4},
			}
		})

		Context("when config is valid", func() {
			It("should pass validation", func() {
				Expect(validate(cfg)).NotTo(HaveOccurred())
			})
		})

		Context("when batch size exceeds the authority's cap", func() {
			BeforeEach(func() {
				cfg.Batch.Size = 51
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("batch size must be between 1 and 50"))
			})
		})

		Context("when rate limit is zero", func() {
			BeforeEach(func() {
				cfg.RateLimit.PerMinute = 0
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("rate limit per minute must be greater than 0"))
			})
		})

		Context("when worker concurrency is negative", func() {
			BeforeEach(func() {
				cfg.Worker.Concurrency = -1
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("worker concurrency must be greater than 0"))
			})
		})

		Context("when an alternate source is missing a base URL", func() {
			BeforeEach(func() {
				cfg.AlternateSources = []AlternateSourceConfig{{Name: "partial"}}
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("alternate source entries require name and base_url"))
			})
		})
	})

	Describe("loadFromEnv", func() {
		var cfg *Config

		BeforeEach(func() {
			cfg = defaults()
			os.Clearenv()
		})

		Context("when environment variables are set", func() {
			BeforeEach(func() {
				os.Setenv("AUTHORITY_BASE_URL", "https://env.example.test")
				os.Setenv("AUTHORITY_API_KEY", "secret-key")
				os.Setenv("RATE_LIMIT_PER_MIN", "90")
				os.Setenv("BATCH_SIZE", "10")
				os.Setenv("SYNC_THRESHOLD_BYTES", "2000")
				os.Setenv("JOB_TTL_SECONDS", "3600")
				os.Setenv("WORKER_CONCURRENCY", "2")
				os.Setenv("LOG_LEVEL", "debug")
			})

			AfterEach(func() {
				os.Clearenv()
			})

			It("should load values from the environment", func() {
				err := loadFromEnv(cfg)
				Expect(err).NotTo(HaveOccurred())

				Expect(cfg.Authority.BaseURL).To(Equal("https://env.example.test"))
				Expect(cfg.Authority.APIKey).To(Equal("secret-key"))
				Expect(cfg.RateLimit.PerMinute).To(Equal(90))
				Expect(cfg.Batch.Size).To(Equal(10))
				Expect(cfg.Job.SyncThresholdBytes).To(Equal(2000))
				Expect(cfg.Job.TTL).To(Equal(1 * time.Hour))
				Expect(cfg.Worker.Concurrency).To(Equal(2))
				Expect(cfg.Logging.Level).To(Equal("debug"))
			})
		})

		Context("when no environment variables are set", func() {
			It("should not modify the config", func() {
				original := *cfg
				err := loadFromEnv(cfg)
				Expect(err).NotTo(HaveOccurred())
				Expect(*cfg).To(Equal(original))
			})
		})

		Context("when a numeric environment variable is malformed", func() {
			BeforeEach(func() {
				os.Setenv("BATCH_SIZE", "not-a-number")
			})

			AfterEach(func() {
				os.Clearenv()
			})

			It("should return an error", func() {
				err := loadFromEnv(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("invalid BATCH_SIZE"))
			})
		})
	})
})
