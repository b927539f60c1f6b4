// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for affinity matrix construction.
type Config struct {
	Columns ColumnsConfig `mapstructure:"columns"`
	Storage StorageConfig `mapstructure:"storage"`
	Matrix  MatrixConfig  `mapstructure:"matrix"`
}

// ColumnsConfig names the columns of long-format tables.
type ColumnsConfig struct {
	User       string `mapstructure:"user" validate:"required"`
	Item       string `mapstructure:"item" validate:"required"`
	Rating     string `mapstructure:"rating" validate:"required"`
	Prediction string `mapstructure:"prediction" validate:"required"`
	Separator  string `mapstructure:"separator" validate:"len=1"`
}

// StorageConfig locates the blob store used to persist index maps and matrices.
type StorageConfig struct {
	BlobStore string          `mapstructure:"blob_store"`
	SavePath  string          `mapstructure:"save_path"`
	S3        S3Config        `mapstructure:"s3"`
	GCS       GCSConfig       `mapstructure:"gcs"`
	Azure     AzureBlobConfig `mapstructure:"azure"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

type AzureBlobConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
}

// MatrixConfig bounds dense matrix materialization.
type MatrixConfig struct {
	// MaxCells is the largest number of cells (users x items) allowed to be densified. Zero means unlimited.
	MaxCells int `mapstructure:"max_cells" validate:"gte=0"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Columns: ColumnsConfig{
			User:       "userID",
			Item:       "itemID",
			Rating:     "rating",
			Prediction: "prediction",
			Separator:  ",",
		},
		Storage: StorageConfig{
			BlobStore: "data",
		},
		Matrix: MatrixConfig{
			MaxCells: 100_000_000,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [columns]
	v.SetDefault("columns.user", defaultConfig.Columns.User)
	v.SetDefault("columns.item", defaultConfig.Columns.Item)
	v.SetDefault("columns.rating", defaultConfig.Columns.Rating)
	v.SetDefault("columns.prediction", defaultConfig.Columns.Prediction)
	v.SetDefault("columns.separator", defaultConfig.Columns.Separator)
	// [storage]
	v.SetDefault("storage.blob_store", defaultConfig.Storage.BlobStore)
	v.SetDefault("storage.save_path", defaultConfig.Storage.SavePath)
	// [matrix]
	v.SetDefault("matrix.max_cells", defaultConfig.Matrix.MaxCells)
}

type configBinding struct {
	key string
	env string
}

var bindings = []configBinding{
	{"storage.blob_store", "GORSE_BLOB_STORE"},
	{"storage.save_path", "GORSE_SAVE_PATH"},
	{"storage.s3.endpoint", "GORSE_S3_ENDPOINT"},
	{"storage.s3.access_key_id", "GORSE_S3_ACCESS_KEY_ID"},
	{"storage.s3.secret_access_key", "GORSE_S3_SECRET_ACCESS_KEY"},
	{"storage.gcs.credentials_file", "GORSE_GCS_CREDENTIALS_FILE"},
	{"storage.azure.connection_string", "GORSE_AZURE_CONNECTION_STRING"},
	{"storage.azure.account_name", "GORSE_AZURE_ACCOUNT_NAME"},
	{"storage.azure.account_key", "GORSE_AZURE_ACCOUNT_KEY"},
	{"matrix.max_cells", "GORSE_MAX_CELLS"},
}

// LoadConfig loads configuration from a TOML file. An empty path yields the defaults, still subject to
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefault(v)
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Trace(err)
	}
	if strings.ContainsAny(config.Columns.Separator, "\"\r\n") {
		return errors.NotValidf("separator %q", config.Columns.Separator)
	}
	return nil
}
