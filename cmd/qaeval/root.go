package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-kratos/qaeval"
	"github.com/go-kratos/qaeval/config"
	"github.com/go-kratos/qaeval/contrib/azure"
	"github.com/go-kratos/qaeval/contrib/google"
	"github.com/go-kratos/qaeval/contrib/otel"
	"github.com/go-kratos/qaeval/evaluate"
	"github.com/go-kratos/qaeval/flow"
	"github.com/go-kratos/qaeval/internal/log"
	"github.com/go-kratos/qaeval/pipeline"
	"github.com/go-kratos/qaeval/tracking"
)

// app is the state shared by the commands once flags and config are read.
type app struct {
	configFile string
	verbose    bool
	cfg        *config.Config
	sync       func()
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"flow":        "paths.flow",
	"data":        "paths.data",
	"responses":   "paths.responses",
	"output":      "paths.output",
	"prefix":      "prefix",
	"concurrency": "concurrency",
	"provider":    "provider",
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "qaeval",
		Short: "Run the QA flow over a dataset and evaluate its answers",
		Long: `qaeval runs a question-answering flow over a JSON-lines dataset, saves the
responses, then scores them for fluency, groundedness, relevance and
coherence with a language model judge.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.sync != nil {
				a.sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline(cmd)
			if err != nil {
				return err
			}
			result := p.Run(cmd.Context())
			if !result.OK() {
				log.Error(result.Err, "pipeline stopped", "stage", result.Stage, "outcome", result.Outcome)
				return result.Err
			}
			return nil
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "config file (yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.String("flow", "", "flow directory containing flow.yaml")
	flags.String("data", "", "question dataset (jsonl)")
	flags.String("responses", "", "responses file written by the run stage")
	flags.String("output", "", "evaluation report file")
	flags.String("prefix", "", "evaluation name prefix, defaults to the current time")
	flags.Int("concurrency", 0, "lines processed at the same time")
	flags.String("provider", "", "model provider: azure or gemini")

	cmd.AddCommand(newRunCmd(a), newEvaluateCmd(a))
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	sync, err := log.Setup(a.verbose)
	if err != nil {
		return err
	}
	a.sync = sync
	v, err := config.New(a.configFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Export(); err != nil {
		return fmt.Errorf("export environment: %w", err)
	}
	a.cfg = cfg
	log.Debug("configuration loaded", "provider", cfg.Provider, "data", cfg.Paths.Data, "flow", cfg.Paths.Flow)
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) provider(ctx context.Context) (qaeval.ModelProvider, string, error) {
	switch a.cfg.Provider {
	case config.ProviderGemini:
		var opts []google.Option
		if budget := a.cfg.Gemini.ThinkingBudget; budget >= 0 {
			opts = append(opts, google.WithThinkingBudget(int32(budget)))
		}
		p, err := google.NewModel(ctx, google.Config{
			APIKey:   a.cfg.Gemini.APIKey,
			Project:  a.cfg.Gemini.Project,
			Location: a.cfg.Gemini.Location,
			Model:    a.cfg.Gemini.Model,
		}, opts...)
		return p, a.cfg.Gemini.Model, err
	default:
		p, err := azure.NewModel(azure.Config{
			Endpoint:   a.cfg.AOAI.Endpoint,
			APIKey:     a.cfg.AOAI.APIKey,
			APIVersion: a.cfg.AOAI.APIVersion,
			Deployment: a.cfg.AOAI.ChatDeployment,
		})
		return p, a.cfg.AOAI.ChatDeployment, err
	}
}

func (a *app) tracker() (tracking.Tracker, error) {
	if !a.cfg.HasTracking() {
		return nil, nil
	}
	return tracking.NewObjectStore(tracking.Config{
		Endpoint:  a.cfg.Tracking.Endpoint,
		AccessKey: a.cfg.Tracking.AccessKey,
		SecretKey: a.cfg.Tracking.SecretKey,
		Bucket:    a.cfg.Tracking.Bucket,
		Secure:    a.cfg.Tracking.Secure,
	})
}

func (a *app) pipeline(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	ctx := cmd.Context()
	provider, model, err := a.provider(ctx)
	if err != nil {
		return nil, err
	}
	tracker, err := a.tracker()
	if err != nil {
		return nil, err
	}
	tracing := otel.Tracing(otel.WithSystem(a.cfg.Provider))
	cfg := pipeline.Config{
		Flow: func(ctx context.Context) (flow.Flow, error) {
			return flow.Load(ctx, a.cfg.Paths.Flow, provider,
				flow.WithModel(model),
				flow.WithMiddleware(tracing),
			)
		},
		Evaluators: func() (map[string]evaluate.Evaluator, error) {
			return evaluate.NewQualityEvaluators(evaluate.ModelConfig{
				Provider:   provider,
				Deployment: model,
				Middleware: []qaeval.Middleware{tracing},
			})
		},
		Data:      a.cfg.Paths.Data,
		Responses: a.cfg.Paths.Responses,
		Output:    a.cfg.Paths.Output,
		Prefix:    a.cfg.Prefix,
		Project: &tracking.Project{
			SubscriptionID: a.cfg.SubscriptionID,
			ResourceGroup:  a.cfg.ResourceGroup,
			ProjectName:    a.cfg.WorkspaceName,
		},
		Tracker:     tracker,
		Concurrency: a.cfg.Concurrency,
	}
	return pipeline.New(cfg,
		pipeline.WithOutput(cmd.OutOrStdout()),
		pipeline.WithLogger(log.WithName("pipeline")),
	), nil
}
