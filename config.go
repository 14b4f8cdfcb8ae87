package beanstalkt

import (
	"io"
	"log"
	"net"
	"strconv"
	"time"
)

// Config describes the configuration of a Client.
type Config struct {
	// Host and Port of the beanstalk server.
	//
	// The defaults are localhost and 11300.
	Host string
	Port int
	// ConnectTimeout bounds the time spent establishing a TCP connection.
	//
	// The default is to have no timeout.
	ConnectTimeout time.Duration
	// ReconnectTimeout is the time between losing the connection and the
	// first attempt to re-establish it, as well as the interval between
	// subsequent attempts.
	//
	// The default is to wait 1 second.
	ReconnectTimeout time.Duration
	// InfoLog is used to log informational messages.
	InfoLog *log.Logger
	// ErrorLog is used to log error messages.
	ErrorLog *log.Logger
}

func (config Config) normalize() Config {
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == 0 {
		config.Port = 11300
	}
	if config.ConnectTimeout < 0 {
		config.ConnectTimeout = 0
	}
	if config.ReconnectTimeout <= 0 {
		config.ReconnectTimeout = time.Second
	}
	if config.InfoLog == nil {
		config.InfoLog = log.New(io.Discard, "", 0)
	}
	if config.ErrorLog == nil {
		config.ErrorLog = log.New(io.Discard, "", 0)
	}

	return config
}

// socket returns the host:port combo to dial.
func (config Config) socket() string {
	return net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
}
