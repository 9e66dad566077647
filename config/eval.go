package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Evaluation keys
const (
	EvalStrategyNameKey = "eval.strategyName" // Name shown on the evaluation page, for visibility only
	EvalDatasetKey      = "eval.dataset"      // Reference of the evaluation dataset
	EvalLanguageKey     = "eval.language"     // Language of the application under evaluation (en or ja)
	EvalJudgeModelKey   = "eval.judgeModel"   // Model used to judge answers
	EvalEntityKey       = "eval.entity"       // Weights & Biases entity
	EvalProjectKey      = "eval.project"      // Weights & Biases project
)

const (
	defaultEvalStrategyName = "jp v1.2.0-beta"
	defaultEvalDataset      = "weave:///wandbot/wandbot-eval-jp/object/wandbot_eval_data_jp:oCWifIAtEVCkSjushP0bOEc5GnhsMUYXURwQznBeKLA"
	defaultEvalLanguage     = Japanese
	defaultEvalJudgeModel   = "gpt-4-1106-preview"
	defaultEvalEntity       = "wandbot"
	defaultEvalProject      = "wandbot-eval-jp"
)

// EvalConfig holds the configuration of an evaluation run
type EvalConfig struct {
	StrategyName string `yaml:"evaluation_strategy_name" validate:"required"`
	Dataset      string `yaml:"eval_dataset" validate:"required"`
	Language     string `yaml:"language" validate:"oneof=en ja"`
	JudgeModel   string `yaml:"eval_judge_model" validate:"required"`
	Entity       string `yaml:"wandb_entity" validate:"required"`
	Project      string `yaml:"wandb_project" validate:"required"`
}

// LayerEvalConfigWithDefaults sets the evaluation defaults on v and binds their
// environment overrides
func LayerEvalConfigWithDefaults(v *viper.Viper) (lv *viper.Viper) {
	v.SetDefault(EvalStrategyNameKey, defaultEvalStrategyName)
	v.SetDefault(EvalDatasetKey, defaultEvalDataset)
	v.SetDefault(EvalLanguageKey, defaultEvalLanguage)
	v.SetDefault(EvalJudgeModelKey, defaultEvalJudgeModel)
	v.SetDefault(EvalEntityKey, defaultEvalEntity)
	v.SetDefault(EvalProjectKey, defaultEvalProject)

	_ = v.BindEnv(EvalJudgeModelKey, "EVAL_JUDGE_MODEL")
	_ = v.BindEnv(EvalEntityKey, "WANDB_ENTITY")
	_ = v.BindEnv(EvalProjectKey, "WANDB_PROJECT")

	return v
}

// GetEvalConfig returns the validated evaluation configuration
func GetEvalConfig(v *viper.Viper) (ec *EvalConfig, err error) {
	ec = &EvalConfig{
		StrategyName: v.GetString(EvalStrategyNameKey),
		Dataset:      v.GetString(EvalDatasetKey),
		Language:     v.GetString(EvalLanguageKey),
		JudgeModel:   v.GetString(EvalJudgeModelKey),
		Entity:       v.GetString(EvalEntityKey),
		Project:      v.GetString(EvalProjectKey),
	}

	if err = validator.New().Struct(ec); err != nil {
		return nil, errors.Wrap(err, "invalid evaluation configuration")
	}

	return ec, nil
}
