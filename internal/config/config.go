// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package config loads FortiManager connection settings from a JSON or INI
// file and from FMG_* environment variables.
//
// JSON files hold the settings either at the top level or nested under a
// "fortimanager" object:
//
//	{"fortimanager": {"host": "10.0.0.1", "username": "admin", "apikey": "..."}}
//
// INI files hold them in a [fortimanager] section, or in the default section
// when there is none:
//
//	[fortimanager]
//	host = 10.0.0.1
//	username = admin
//	password = secret
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/viper"

	"github.com/netascode/go-fmg"
)

const (
	// Section is the JSON object or INI section holding the settings
	Section = "fortimanager"

	// EnvPrefix prefixes the environment variables read by FromEnv
	EnvPrefix = "FMG"

	// iniDefaultSection is the key viper gives keys outside any INI section
	iniDefaultSection = "default"
)

// envKeys are the settings that can come from the environment
var envKeys = []string{"host", "username", "password", "apikey"}

// Settings are the connection settings read from a config file.
//
// Optional values that were not present in the file are nil so callers can
// tell "unset" from "false" or zero.
type Settings struct {
	Host      string `mapstructure:"host"`
	IP        string `mapstructure:"ip"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	APIKey    string `mapstructure:"apikey"`
	UseSSL    *bool  `mapstructure:"use_ssl"`
	VerifySSL *bool  `mapstructure:"verify_ssl"`
	Timeout   *int   `mapstructure:"timeout"`
}

// Address returns the configured host, falling back to ip
func (s Settings) Address() string {
	if s.Host != "" {
		return s.Host
	}
	return s.IP
}

// Load reads settings from path.
//
// The file is parsed as JSON first and as INI when that fails. A missing,
// unreadable or unparseable file is a config error.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Settings{}, configError(fmt.Sprintf("Configuration file not found: %s", path), err)
		}
		return Settings{}, configError(fmt.Sprintf("Unable to read configuration file: %s", path), err)
	}
	return Parse(data)
}

// Parse reads settings from the content of a config file
func Parse(data []byte) (Settings, error) {
	if s, err := parse(data, "json"); err == nil {
		return s, nil
	}

	s, err := parse(data, "ini")
	if err != nil {
		return Settings{}, configError(fmt.Sprintf("Unable to parse configuration file: %v", err), err)
	}
	return s, nil
}

func parse(data []byte, format string) (Settings, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return Settings{}, err
	}

	section := v
	if sub := v.Sub(Section); sub != nil {
		section = sub
	} else if format == "ini" {
		section = v.Sub(iniDefaultSection)
		if section == nil {
			return Settings{}, nil
		}
	}

	var s Settings
	if err := section.Unmarshal(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// FromEnv overrides settings with FMG_HOST, FMG_USERNAME, FMG_PASSWORD and
// FMG_APIKEY when they are set and non-empty
func FromEnv(s Settings) Settings {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range envKeys {
		_ = v.BindEnv(key) //nolint:errcheck // only fails for an empty key
	}

	if host := v.GetString("host"); host != "" {
		s.Host = host
	}
	if user := v.GetString("username"); user != "" {
		s.Username = user
	}
	if pass := v.GetString("password"); pass != "" {
		s.Password = pass
	}
	if key := v.GetString("apikey"); key != "" {
		s.APIKey = key
	}
	return s
}

func configError(msg string, cause error) error {
	e := &fmg.FmgError{
		Kind:      fmg.KindConfig,
		Operation: "load config",
		Message:   msg,
		Err:       cause,
	}
	if cause != nil {
		e.InternalMsg = cause.Error()
	}
	return e
}
