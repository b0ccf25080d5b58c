package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	v.Set("auth.secret", "s")
	v.Set("mongodb.uri", "mongodb://localhost:27017")

	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != ":8080" {
		t.Errorf("default port = %q", cfg.Server.Port)
	}
	if cfg.Auth.MaxSkewMS != 120_000 {
		t.Errorf("default skew = %d", cfg.Auth.MaxSkewMS)
	}
	if cfg.Logs.Retention != 200 {
		t.Errorf("default retention = %d", cfg.Logs.Retention)
	}
	if cfg.Storage.Driver != "mongo" {
		t.Errorf("default driver = %q", cfg.Storage.Driver)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		set  map[string]interface{}
	}{
		{"missing secret", map[string]interface{}{}},
		{"mongo without uri", map[string]interface{}{"auth.secret": "s", "mongodb.uri": ""}},
		{"bad retention", map[string]interface{}{"auth.secret": "s", "storage.driver": "memory", "logs.retention": 0}},
		{"zero notifier interval", map[string]interface{}{"auth.secret": "s", "storage.driver": "memory", "telegram.enabled": true, "telegram.interval_minutes": 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tc.set {
				v.Set(k, val)
			}
			if _, err := Load(v); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
