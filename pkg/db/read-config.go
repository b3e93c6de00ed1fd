package db

import (
	"fmt"
)

// DBConfigFromYamlObj builds a DBConfig from the yaml representation,
// assembling the connection URI from its parts. Credentials are expected to
// be filled in already (config file or env override).
func DBConfigFromYamlObj(y DBConfigYaml) DBConfig {
	uri := fmt.Sprintf(`mongodb%s://%s:%s@%s`, y.ConnectionPrefix, y.Username, y.Password, y.ConnectionStr)
	if y.Username == "" && y.Password == "" {
		uri = fmt.Sprintf(`mongodb%s://%s`, y.ConnectionPrefix, y.ConnectionStr)
	}

	return DBConfig{
		URI:              uri,
		DBNamePrefix:     y.DBNamePrefix,
		Timeout:          y.Timeout,
		NoCursorTimeout:  y.UseNoCursorTimeout,
		MaxPoolSize:      uint64(y.MaxPoolSize),
		IdleConnTimeout:  y.IdleConnTimeout,
		RunIndexCreation: y.RunIndexCreation,
	}
}
