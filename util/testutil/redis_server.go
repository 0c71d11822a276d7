package testutil

import (
	"github.com/alicebob/miniredis/v2"
)

// RedisServer is an in-process Redis for tests.
type RedisServer struct {
	server *miniredis.Miniredis
}

func NewRedisServer() *RedisServer {
	server, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	return &RedisServer{
		server: server,
	}
}

func (s *RedisServer) Addr() string {
	return s.server.Addr()
}

// HashKeys returns the field names in the hash at key.
func (s *RedisServer) HashKeys(key string) []string {
	fields, _ := s.server.HKeys(key)
	return fields
}

func (s *RedisServer) Close() {
	s.server.Close()
}
