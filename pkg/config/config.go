package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/matst80/slask-browse/pkg/common"
	"github.com/matst80/slask-browse/pkg/dispatch"
	"github.com/matst80/slask-browse/pkg/sorting"
	"golang.org/x/text/language"
)

type Config struct {
	ListenAddress   string
	DebugAddress    string
	SearchApiUrl    string
	RedisUrl        string
	RedisPassword   string
	RedisDB         int
	RabbitUrl       string
	RabbitPrefix    string
	DataDir         string
	Locale          language.Tag
	Dispatch        dispatch.Config
	SessionTTL      time.Duration
	Timeouts        common.TimeoutConfig
	EnableProfiling bool
}

func Default() Config {
	return Config{
		ListenAddress: ":8080",
		DebugAddress:  ":8081",
		SearchApiUrl:  "http://localhost:8082",
		RabbitPrefix:  "browse",
		Locale:        sorting.DefaultLocale,
		Dispatch:      dispatch.DefaultConfig(),
		SessionTTL:    30 * time.Minute,
		Timeouts:      common.DefaultTimeoutConfig(),
	}
}

// Load reads the environment on top of Default. Values that fail to parse
// are logged and the default is kept.
func Load(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	c := Default()
	str := func(curr *string, env string) {
		if v := getenv(env); v != "" {
			*curr = v
		}
	}
	integer := func(env string, apply func(n int)) {
		v := getenv(env)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			log.Printf("ignoring invalid %s=%q", env, v)
			return
		}
		apply(n)
	}
	millis := func(curr *time.Duration, env string) {
		integer(env, func(n int) {
			if n > 0 {
				*curr = time.Duration(n) * time.Millisecond
			}
		})
	}
	boolean := func(curr *bool, env string) {
		v := getenv(env)
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("ignoring invalid %s=%q", env, v)
			return
		}
		*curr = b
	}

	str(&c.ListenAddress, "LISTEN_ADDRESS")
	str(&c.DebugAddress, "DEBUG_ADDRESS")
	str(&c.SearchApiUrl, "SEARCH_API_URL")
	str(&c.RedisUrl, "REDIS_URL")
	str(&c.RedisPassword, "REDIS_PASSWORD")
	integer("REDIS_DB", func(n int) { c.RedisDB = n })
	str(&c.RabbitUrl, "RABBIT_URL")
	str(&c.RabbitPrefix, "RABBIT_PREFIX")
	str(&c.DataDir, "DATA_DIR")
	if v := getenv("LOCALE"); v != "" {
		c.Locale = sorting.ParseLocale(v)
	}
	millis(&c.Dispatch.TextDebounce, "TEXT_DEBOUNCE_MS")
	millis(&c.Dispatch.FilterDebounce, "FILTER_DEBOUNCE_MS")
	millis(&c.Dispatch.FetchTimeout, "FETCH_TIMEOUT_MS")
	integer("MIN_QUERY_LENGTH", func(n int) {
		if n > 0 {
			c.Dispatch.MinQueryLength = n
		}
	})
	boolean(&c.Dispatch.Semantic, "SEMANTIC_SEARCH")
	integer("SESSION_TTL_MINUTES", func(n int) {
		if n > 0 {
			c.SessionTTL = time.Duration(n) * time.Minute
		}
	})
	boolean(&c.EnableProfiling, "PROFILING")
	c.Timeouts = common.LoadTimeoutConfig(c.Timeouts, getenv)
	return c
}
