package store

import (
	stderrors "errors"

	"github.com/redis/go-redis/v9"
)

func isRedisNil(err error) bool {
	return stderrors.Is(err, redis.Nil)
}
