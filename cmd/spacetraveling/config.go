package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/eringen/spacetraveling"
)

// newViper reads path, or ./config.yaml when path is empty, with every key
// overridable from the environment. A missing default config file is not
// an error.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("addr", ":3000")
	v.SetDefault("site.name", "spacetraveling")
	v.SetDefault("site.url", "http://localhost:3000")
	v.SetDefault("site.locale", "pt-BR")
	v.SetDefault("site.timezone", "UTC")
	v.SetDefault("database.path", "data/pages.db")
	v.SetDefault("prismic.timeout", "15s")
	v.SetDefault("revalidate.interval", "30m")
	v.SetDefault("revalidate.prerender", 20)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// siteConfigFrom maps config keys onto the application settings. Keys
// read from the environment use their upper-cased, underscored form, so
// prismic.api_endpoint is PRISMIC_API_ENDPOINT.
func siteConfigFrom(v *viper.Viper) spacetraveling.SiteConfig {
	return spacetraveling.SiteConfig{
		Name:        v.GetString("site.name"),
		URL:         strings.TrimSuffix(v.GetString("site.url"), "/"),
		Description: v.GetString("site.description"),
		Author:      v.GetString("site.author"),

		Addr:         v.GetString("addr"),
		DatabasePath: v.GetString("database.path"),

		PrismicEndpoint:    v.GetString("prismic.api_endpoint"),
		PrismicAccessToken: v.GetString("prismic.access_token"),
		HTTPTimeout:        v.GetDuration("prismic.timeout"),

		AdminPassword: v.GetString("admin.password"),
		SessionSecret: v.GetString("admin.session_secret"),
		CookieSecure:  v.GetBool("cookie.secure"),

		Timezone:           v.GetString("site.timezone"),
		Locale:             v.GetString("site.locale"),
		RevalidateInterval: v.GetDuration("revalidate.interval"),
		PrerenderCount:     v.GetInt("revalidate.prerender"),
	}
}
