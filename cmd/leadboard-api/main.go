// Command leadboard-api serves the dev API that the CLI and the contract
// tests talk to.
package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"leadboard/devapi"
)

func main() {
	debug, _ := strconv.ParseBool(os.Getenv("DEBUG"))
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.StandardLogger()

	var (
		tasks    devapi.TaskStore
		contacts devapi.ContactStore
		outbox   devapi.Outbox
	)
	if connStr := os.Getenv("STORAGE_CONNECTION_STRING"); connStr != "" {
		tables, err := devapi.NewTableStore(connStr, envOr("TASKS_TABLE", "tasks"), envOr("CONTACTS_TABLE", "contacts"))
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		tasks, contacts = tables, tables
		if queue := os.Getenv("OUTBOX_QUEUE"); queue != "" {
			q, err := devapi.NewQueueOutbox(connStr, queue)
			if err != nil {
				log.Fatalf("outbox: %v", err)
			}
			outbox = q
		}
		log.WithField("tasks_table", envOr("TASKS_TABLE", "tasks")).Info("using table storage")
	} else {
		mem := devapi.NewMemoryStore()
		tasks, contacts = mem, mem
		log.Info("using in-memory storage")
	}

	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		ttl := 30 * time.Second
		if v := os.Getenv("TASKS_CACHE_TTL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				log.Fatalf("invalid TASKS_CACHE_TTL: %v", err)
			}
			ttl = d
		}
		tasks = devapi.NewCache(tasks, redis.NewClient(redisOptions(redisConn)), ttl)
	}

	auth, err := newAuth()
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	e := devapi.NewRouter(devapi.Deps{
		Tasks:    tasks,
		Contacts: contacts,
		Auth:     auth,
		Outbox:   outbox,
		Logger:   logger,
	})

	if debug {
		pprof.Register(e)
	}

	listenAddr := ":8000"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}
	log.WithField("addr", listenAddr).Info("leadboard dev api listening")
	e.Logger.Fatal(e.Start(listenAddr))
}

// newAuth uses the shared-secret modes when the environment selects one and
// Auth0 JWKS otherwise.
func newAuth() (*devapi.Auth, error) {
	if os.Getenv("LOCAL_AUTH_MODE") != "" || os.Getenv("AUTH_TEST_MODE") == "1" {
		return devapi.NewAuthFromEnv(nil, "", "")
	}
	audience := os.Getenv("AUTH0_AUDIENCE")
	domain := os.Getenv("AUTH0_DOMAIN")
	if audience == "" || domain == "" {
		return nil, fmt.Errorf("missing Auth0 config: set AUTH0_DOMAIN and AUTH0_AUDIENCE or LOCAL_AUTH_MODE=hs256")
	}
	jwks, err := keyfunc.Get(fmt.Sprintf("https://%s/.well-known/jwks.json", domain), keyfunc.Options{})
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	return devapi.NewAuthFromEnv(jwks, audience, "https://"+domain+"/")
}

// redisOptions accepts a redis:// URL or the Azure style
// "host:port,password=...,ssl=True" connection string.
func redisOptions(conn string) *redis.Options {
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
