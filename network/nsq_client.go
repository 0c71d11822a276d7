package network

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// NSQClient publishes messages to nsqd over its HTTP interface.
type NSQClient struct {
	URL        string
	httpClient *http.Client
}

// NewNSQClient returns a new NSQ client that will post to the nsqd
// HTTP address at url, which usually ends with :4151.
//
// Note that this client provides write access to the queue. It does
// not provide read access. The workers do the reading.
func NewNSQClient(url string) *NSQClient {
	return &NSQClient{
		URL:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enqueue puts assetID into topic. Workers reading the topic get the
// id as the message body.
func (client *NSQClient) Enqueue(topic string, assetID int64) error {
	return client.enqueueString(topic, strconv.FormatInt(assetID, 10))
}

func (client *NSQClient) enqueueString(topic string, data string) error {
	url := fmt.Sprintf("%s/pub?topic=%s", client.URL, topic)
	resp, err := client.httpClient.Post(url, "text/plain", bytes.NewBufferString(data))
	if err != nil {
		return fmt.Errorf("Nsqd returned an error when queuing data: %v", err)
	}

	// nsqd sends a simple OK. We have to read the response body,
	// or the connection will hang open forever.
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyText := "[no response body]"
		if len(body) > 0 {
			bodyText = string(body)
		}
		return fmt.Errorf("nsqd returned status code %d when attempting to queue data. "+
			"Response body: %s", resp.StatusCode, bodyText)
	}
	return nil
}
