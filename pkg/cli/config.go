package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"leadagent/pkg/adapter"
	"leadagent/pkg/repository"
	"leadagent/pkg/usecase/memory"
	"leadagent/pkg/usecase/retrieval"
	"leadagent/pkg/utils/logging"
	"leadagent/pkg/workflow"
)

// config holds configuration values
type config struct {
	// Repository
	store    string
	project  string
	database string
	mysqlDSN string

	// Adapters
	geminiProject  string
	geminiLocation string

	// Qualification, archive, analytics
	policyDir string
	bucket    string
	bqDataset string
	bqTable   string

	// Tuning and logging
	tuningPath string
	logLevel   string

	tuning tuning
}

// tuning holds retrieval and model parameters loaded from a YAML file.
// Zero values mean "use the built-in default".
type tuning struct {
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	GenerativeModel     string  `yaml:"generative_model"`
	EmbeddingModel      string  `yaml:"embedding_model"`
	EmbeddingDimensions int     `yaml:"embedding_dimensions"`
	FAQCollection       string  `yaml:"faq_collection"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "store",
			Usage:       "Profile store backend (firestore, mysql, memory)",
			Value:       "firestore",
			Sources:     cli.EnvVars("LEADAGENT_STORE"),
			Destination: &cfg.store,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "mysql-dsn",
			Usage:       "MySQL DSN for the mysql profile store",
			Sources:     cli.EnvVars("LEADAGENT_MYSQL_DSN"),
			Destination: &cfg.mysqlDSN,
		},
		&cli.StringFlag{
			Name:        "tuning",
			Usage:       "Path to a YAML file with retrieval and model tuning",
			Sources:     cli.EnvVars("LEADAGENT_TUNING"),
			Destination: &cfg.tuningPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("LEADAGENT_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// leadFlags returns flags for qualification, archive and analytics wiring
func leadFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego qualification policies",
			Sources:     cli.EnvVars("LEADAGENT_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for transcript archives",
			Sources:     cli.EnvVars("LEADAGENT_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "bq-dataset",
			Usage:       "BigQuery dataset for funnel analytics",
			Sources:     cli.EnvVars("LEADAGENT_BQ_DATASET"),
			Destination: &cfg.bqDataset,
		},
		&cli.StringFlag{
			Name:        "bq-table",
			Usage:       "BigQuery table for funnel analytics",
			Value:       "lead_turns",
			Sources:     cli.EnvVars("LEADAGENT_BQ_TABLE"),
			Destination: &cfg.bqTable,
		},
	}
}

// setup applies logging and tuning configuration before a command runs
func (cfg *config) setup(ctx context.Context) (context.Context, error) {
	logger := logging.New(cfg.logLevel, os.Stdout)
	logging.SetDefault(logger)
	ctx = logging.With(ctx, logger)

	if cfg.tuningPath != "" {
		data, err := os.ReadFile(cfg.tuningPath)
		if err != nil {
			return ctx, goerr.Wrap(err, "failed to read tuning file", goerr.V("path", cfg.tuningPath))
		}
		if err := yaml.Unmarshal(data, &cfg.tuning); err != nil {
			return ctx, goerr.Wrap(err, "failed to parse tuning file", goerr.V("path", cfg.tuningPath))
		}
	}

	return ctx, nil
}

// newRepositories creates the profile store and FAQ index. Firestore serves
// the FAQ index in every non-memory configuration; the mysql store only
// replaces the profile side.
func (cfg *config) newRepositories(ctx context.Context) (repository.ProfileStore, repository.FAQIndex, error) {
	if cfg.store == "memory" {
		mem := repository.NewMemory()
		return mem, mem, nil
	}

	if cfg.project == "" {
		return nil, nil, goerr.New("project is required")
	}
	if cfg.database == "" {
		return nil, nil, goerr.New("database is required")
	}

	var opts []repository.FirestoreOption
	if cfg.tuning.FAQCollection != "" {
		opts = append(opts, repository.WithFAQCollection(cfg.tuning.FAQCollection))
	}
	fs, err := repository.NewFirestore(ctx, cfg.project, cfg.database, opts...)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create firestore repository")
	}

	switch cfg.store {
	case "firestore":
		return fs, fs, nil
	case "mysql":
		if cfg.mysqlDSN == "" {
			return nil, nil, goerr.New("mysql-dsn is required for the mysql store")
		}
		store, err := repository.NewMySQL(ctx, cfg.mysqlDSN)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create mysql store")
		}
		return store, fs, nil
	default:
		return nil, nil, goerr.New("unknown store backend", goerr.V("store", cfg.store))
	}
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	var opts []adapter.GeminiOption
	if cfg.tuning.GenerativeModel != "" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.tuning.GenerativeModel))
	}
	if cfg.tuning.EmbeddingModel != "" {
		opts = append(opts, adapter.WithEmbeddingModel(cfg.tuning.EmbeddingModel))
	}
	if cfg.tuning.EmbeddingDimensions > 0 {
		opts = append(opts, adapter.WithEmbeddingDimensions(cfg.tuning.EmbeddingDimensions))
	}

	gemini, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini adapter")
	}
	return gemini, nil
}

// newAugmenter creates the FAQ retrieval augmenter with tuned parameters
func (cfg *config) newAugmenter(gemini adapter.Gemini, index repository.FAQIndex) *retrieval.Augmenter {
	var opts []retrieval.Option
	if cfg.tuning.TopK > 0 {
		opts = append(opts, retrieval.WithTopK(cfg.tuning.TopK))
	}
	if cfg.tuning.SimilarityThreshold > 0 {
		opts = append(opts, retrieval.WithThreshold(cfg.tuning.SimilarityThreshold))
	}
	return retrieval.New(gemini, index, opts...)
}

// newUpdater creates the memory pipeline
func (cfg *config) newUpdater(gemini adapter.Gemini, store repository.ProfileStore) *memory.Updater {
	return memory.NewUpdater(store, memory.NewExtractor(gemini))
}

// newArchive creates the transcript archive, or nil when no bucket is set
func (cfg *config) newArchive(ctx context.Context) (adapter.Archive, error) {
	if cfg.bucket == "" {
		return nil, nil
	}

	archive, err := adapter.NewArchive(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create archive")
	}
	return archive, nil
}

// newAnalytics creates the funnel analytics sink, falling back to a no-op
// when no dataset is configured
func (cfg *config) newAnalytics(ctx context.Context) (adapter.Analytics, error) {
	if cfg.bqDataset == "" {
		return adapter.NoopAnalytics{}, nil
	}
	if cfg.project == "" {
		return nil, goerr.New("project is required for analytics")
	}

	analytics, err := adapter.NewBigQueryAnalytics(ctx, cfg.project, cfg.bqDataset, cfg.bqTable)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create analytics")
	}
	return analytics, nil
}

// newWorkflow creates the qualification engine, or nil when no policy
// directory is set
func (cfg *config) newWorkflow(ctx context.Context) (*workflow.Engine, error) {
	if cfg.policyDir == "" {
		return nil, nil
	}

	engine, err := workflow.New(ctx, cfg.policyDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load qualification policies")
	}
	return engine, nil
}
