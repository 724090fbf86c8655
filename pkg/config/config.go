// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// DBCreds holds Postgres connection settings.
type DBCreds struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Configured reports whether enough is set to attempt a connection.
func (c DBCreds) Configured() bool {
	return c.Host != "" && c.Database != ""
}

type Server struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Model configures training and the artifact store.
type Model struct {
	ArtifactDir  string   `yaml:"artifact_dir"`
	DatasetPath  string   `yaml:"dataset_path"`
	MaxFeatures  int      `yaml:"max_features"`
	MaxDF        float64  `yaml:"max_df"`
	MinDF        *float64 `yaml:"min_df"`
	KeepVersions int      `yaml:"keep_versions"`
}

// MinDocFreq returns min_df, or 0 when unset.
func (m Model) MinDocFreq() float64 {
	if m.MinDF == nil {
		return 0
	}
	return *m.MinDF
}

type Matching struct {
	TopN     int     `yaml:"top_n"`
	MinScore float64 `yaml:"min_score"`
}

type Config struct {
	DBCreds  DBCreds  `yaml:"db_creds"`
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`
	Model    Model    `yaml:"model"`
	Matching Matching `yaml:"matching"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DBCreds.Port == "" {
		c.DBCreds.Port = "5432"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Model.ArtifactDir == "" {
		c.Model.ArtifactDir = "./trained_models"
	}
	if c.Model.DatasetPath == "" {
		c.Model.DatasetPath = "./data/KidneyData.csv"
	}
	if c.Model.MaxFeatures == 0 {
		c.Model.MaxFeatures = 200
	}
	if c.Model.MaxDF == 0 {
		c.Model.MaxDF = 0.25
	}
	if c.Model.MinDF == nil {
		minDF := 0.01
		c.Model.MinDF = &minDF
	}
	if c.Model.KeepVersions == 0 {
		c.Model.KeepVersions = 2
	}
	if c.Matching.TopN == 0 {
		c.Matching.TopN = 10
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Model.MaxFeatures < 0 {
		errs = append(errs, fmt.Errorf("model.max_features must be positive, got %d", c.Model.MaxFeatures))
	}
	if c.Model.MaxDF <= 0 || c.Model.MaxDF > 1 {
		errs = append(errs, fmt.Errorf("model.max_df must be in (0,1], got %v", c.Model.MaxDF))
	}
	minDF := c.Model.MinDocFreq()
	if minDF < 0 || minDF > 1 {
		errs = append(errs, fmt.Errorf("model.min_df must be in [0,1], got %v", minDF))
	}
	if minDF > c.Model.MaxDF {
		errs = append(errs, fmt.Errorf("model.min_df %v exceeds model.max_df %v", minDF, c.Model.MaxDF))
	}
	if c.Model.KeepVersions < 0 {
		errs = append(errs, fmt.Errorf("model.keep_versions must be positive, got %d", c.Model.KeepVersions))
	}
	if c.Matching.TopN < 0 {
		errs = append(errs, fmt.Errorf("matching.top_n must be positive, got %d", c.Matching.TopN))
	}
	if c.Matching.MinScore < 0 || c.Matching.MinScore > 100 {
		errs = append(errs, fmt.Errorf("matching.min_score must be in [0,100], got %v", c.Matching.MinScore))
	}
	return errors.Join(errs...)
}

// LoadConfig loads the configuration from a YAML file. An empty path falls
// back to CONFIG_PATH; if neither is set the defaults are returned.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}
