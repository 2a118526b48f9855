// Package config resolves environment overrides for file based settings.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Env looks up settings from the environment. Keys use dotted paths
// ("database.host") and map to PREFIX_DATABASE_HOST.
type Env struct {
	v *viper.Viper
}

// NewEnv creates an Env reading variables with the given prefix.
func NewEnv(prefix string) *Env {
	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(prefix))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Env{v: v}
}

// IsSet reports whether the variable for key is present and non-empty.
func (e *Env) IsSet(key string) bool {
	return e.v.IsSet(key)
}

// String overwrites *dst when key is set.
func (e *Env) String(key string, dst *string) {
	if e.IsSet(key) {
		*dst = e.v.GetString(key)
	}
}

// Int overwrites *dst when key is set.
func (e *Env) Int(key string, dst *int) {
	if e.IsSet(key) {
		*dst = e.v.GetInt(key)
	}
}

// Bool overwrites *dst when key is set.
func (e *Env) Bool(key string, dst *bool) {
	if e.IsSet(key) {
		*dst = e.v.GetBool(key)
	}
}

// Duration overwrites *dst when key is set. Values use time.ParseDuration
// syntax ("30s", "5m").
func (e *Env) Duration(key string, dst *time.Duration) {
	if e.IsSet(key) {
		*dst = e.v.GetDuration(key)
	}
}
