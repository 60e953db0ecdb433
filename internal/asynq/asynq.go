package asynqutil

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/hibiken/asynq"
)

// RedisOpt builds asynq's connection options from a redis://[:password@]host:port/db URL.
func RedisOpt(redisURL string) (asynq.RedisClientOpt, error) {
	u, err := url.Parse(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}
	if u.Host == "" {
		return asynq.RedisClientOpt{}, fmt.Errorf("redis url %q has no host", redisURL)
	}

	db := 0
	if u.Path != "" && len(u.Path) > 1 {
		db, err = strconv.Atoi(u.Path[1:])
		if err != nil {
			return asynq.RedisClientOpt{}, fmt.Errorf("redis db %q: %w", u.Path[1:], err)
		}
	}

	opt := asynq.RedisClientOpt{
		Addr: u.Host,
		DB:   db,
	}
	if u.User != nil {
		opt.Username = u.User.Username()
		opt.Password, _ = u.User.Password()
	}
	return opt, nil
}
