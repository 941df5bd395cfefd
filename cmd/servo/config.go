// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"io/ioutil"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"
)

// Config holds settings that can come from a YAML file.  Command-line
// flags override them.
type Config struct {
	// Backend is "http:<base URL>" or "mock[:<fixtures file>]".
	Backend string `mapstructure:"backend"`

	// APIKey is sent in the x-api-key header.
	APIKey string `mapstructure:"api_key"`

	// Listen is the address the mock server binds.
	Listen string `mapstructure:"listen" validate:"omitempty,hostname_port"`

	// Fixtures is a YAML fixture file for the mock server.
	Fixtures string `mapstructure:"fixtures" validate:"omitempty,file"`

	// LogLevel is a logrus level name.
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=trace debug info warning warn error fatal panic"`
}

var validate = validator.New()

// parseConfig decodes and validates YAML configuration.  Unknown keys
// are an error.
func parseConfig(bytes []byte) (Config, error) {
	var raw map[string]interface{}
	var config Config
	err := yaml.Unmarshal(bytes, &raw)
	if err != nil {
		return config, err
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &config,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return config, err
	}
	err = decoder.Decode(raw)
	if err != nil {
		return config, err
	}
	err = validate.Struct(config)
	return config, err
}

func loadConfig(filename string) (Config, error) {
	bytes, err := ioutil.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}
	return parseConfig(bytes)
}
