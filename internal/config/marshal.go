// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package config

import (
	"github.com/samber/oops"
	yamlv3 "gopkg.in/yaml.v3"
)

// Marshal renders the configuration as YAML readable by Load.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return nil, oops.Code("CONFIG_MARSHAL_FAILED").Wrap(err)
	}
	return data, nil
}
