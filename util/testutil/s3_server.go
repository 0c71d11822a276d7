package testutil

import (
	"net/http/httptest"
	"strings"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

const ReplicationBucket = "asset-replicas-test"

// S3Server is an in-memory S3 endpoint with ReplicationBucket
// already created.
type S3Server struct {
	Backend *s3mem.Backend
	server  *httptest.Server
	URL     string
}

func NewS3Server() *S3Server {
	backend := s3mem.New()
	backend.CreateBucket(ReplicationBucket)
	faker := gofakes3.New(backend)
	server := httptest.NewServer(faker.Server())
	return &S3Server{
		Backend: backend,
		server:  server,
		URL:     server.URL,
	}
}

// Host returns host:port, which is what minio.New wants.
func (s *S3Server) Host() string {
	return strings.TrimPrefix(s.URL, "http://")
}

func (s *S3Server) Close() {
	s.server.Close()
}
