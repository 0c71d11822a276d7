package testutil

import (
	"io"
	"net/http"
	"strings"
	"sync"
)

// These functions allow us to mock http responses from nsqd.

var EmptyHeaders = make(map[string]string, 0)

// Returns an http handler function that returns the specified
// string, along with the specified headers.
func HttpStringResponder(headers map[string]string, data string) http.HandlerFunc {
	f := func(w http.ResponseWriter, r *http.Request) {
		setHeaders(w, headers)
		w.Write([]byte(data))
	}
	return http.HandlerFunc(f)
}

func setHeaders(w http.ResponseWriter, headers map[string]string) {
	if headers != nil {
		for key, value := range headers {
			w.Header().Set(key, value)
		}
	}
}

// NSQResponder mimics nsqd's /pub endpoint. It records each message
// body by topic and answers "OK", or StatusCode if that is set.
type NSQResponder struct {
	mutex      sync.Mutex
	messages   map[string][]string
	StatusCode int
}

func NewNSQResponder() *NSQResponder {
	return &NSQResponder{messages: make(map[string][]string)}
}

func (n *NSQResponder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/pub" {
		http.NotFound(w, r)
		return
	}
	if n.StatusCode != 0 && n.StatusCode != http.StatusOK {
		w.WriteHeader(n.StatusCode)
		w.Write([]byte("E_FAILED_ON_PURPOSE"))
		return
	}
	body, _ := io.ReadAll(r.Body)
	topic := r.URL.Query().Get("topic")
	n.mutex.Lock()
	n.messages[topic] = append(n.messages[topic], strings.TrimSpace(string(body)))
	n.mutex.Unlock()
	w.Write([]byte("OK"))
}

// Messages returns the bodies published to topic, oldest first.
func (n *NSQResponder) Messages(topic string) []string {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return append([]string(nil), n.messages[topic]...)
}
