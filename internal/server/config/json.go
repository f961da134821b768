package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophaccounts/internal/flagx"
	"github.com/dmitrijs2005/gophaccounts/internal/timex"
	"github.com/samber/oops"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// Absent fields keep the value they had before the file was applied.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	GRPCAddr                     string         `json:"grpc_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	StoreKind                    string         `json:"store"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	AMQPURL                      string         `json:"amqp_url"`
	AMQPExchange                 string         `json:"amqp_exchange"`
	DisplayIDPrefix              string         `json:"display_id_prefix"`
	LogLevel                     string         `json:"log_level"`
	PublishTimeout               timex.Duration `json:"publish_timeout"`
}

// parseJson loads the file named by -c/-config (or $ACCOUNTS_CONFIG) into
// config. No file name means nothing to load.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return oops.Code("CONFIG_PARSE_FAILED").With("path", path).Wrap(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.StoreKind, c.StoreKind)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AMQPURL, c.AMQPURL)
	setString(&config.AMQPExchange, c.AMQPExchange)
	setString(&config.DisplayIDPrefix, c.DisplayIDPrefix)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.PublishTimeout.Duration != 0 {
		config.PublishTimeout = c.PublishTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
