package config

import (
	"net"
	"strconv"
	"time"
)

// SMTPConfig describes the relay used to deliver alert emails.
type SMTPConfig struct {
	Server            string        `mapstructure:"server"`
	Port              int           `mapstructure:"port"`
	Username          string        `mapstructure:"username"`
	Password          string        `mapstructure:"password"`
	PasswordParameter string        `mapstructure:"password_parameter"` // SSM parameter name, prod only
	Timeout           time.Duration `mapstructure:"timeout"`
}

// Addr returns host:port for dialing the relay.
func (c SMTPConfig) Addr() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
}

// ResolvedPassword returns the relay password, preferring Parameter Store in prod.
func (c SMTPConfig) ResolvedPassword(env string) string {
	return resolveSecret(env, c.PasswordParameter, c.Password)
}
