package config

import (
	"errors"
	"flag"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/peterbourgon/ff/v3"
)

// EnvPrefix is prepended to every flag name when looking it up in the environment,
// e.g. -token-secret can be given as FORMDESK_TOKEN_SECRET.
const EnvPrefix = "FORMDESK"

type Config struct {
	Addr           string
	DBUrl          string
	TokenSecret    string
	TokenTTL       time.Duration
	RequestTimeout time.Duration
	Debug          bool

	// bootstrap admin, created on startup when missing
	AdminUser     string
	AdminEmail    string
	AdminPassword string
}

func Parse(args []string) (cfg Config, err error) {
	fs := flag.NewFlagSet("formdesk", flag.ContinueOnError)

	var host string
	fs.StringVar(&host, "host", "0.0.0.0", "listen host name")
	var port uint
	fs.UintVar(&port, "port", 80, "listen port number")
	fs.StringVar(&cfg.DBUrl, "db-url", "formdesk.sqlite", "path to SQLite3 DB file")
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", 86400, "token TTL in seconds")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", 30*time.Second, "maximum time spent handling a request")
	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	fs.StringVar(&cfg.AdminUser, "admin-user", "", "username of the bootstrap admin")
	fs.StringVar(&cfg.AdminEmail, "admin-email", "admin@example.com", "email of the bootstrap admin")
	fs.StringVar(&cfg.AdminPassword, "admin-password", "", "password of the bootstrap admin")

	err = ff.Parse(fs, args, ff.WithEnvVarPrefix(EnvPrefix))
	if err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	switch {
	case cfg.TokenSecret == "":
		err = errors.New("missing parameter -token-secret")
	case cfg.RequestTimeout <= 0:
		err = errors.New("parameter -request-timeout must be positive")
	case (cfg.AdminUser == "") != (cfg.AdminPassword == ""):
		err = errors.New("parameters -admin-user and -admin-password go together")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
