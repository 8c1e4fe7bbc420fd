package chathub_test

import "sync/atomic"

type MockClient struct {
	id          string
	RecvChannel chan []byte
	closed      atomic.Int32
}

func newMockClient(id string, buffer int) *MockClient {
	return &MockClient{
		id:          id,
		RecvChannel: make(chan []byte, buffer),
	}
}

func (c *MockClient) GetID() string {
	return c.id
}

func (c *MockClient) GetSendChannel() chan<- []byte {
	return c.RecvChannel
}

func (c *MockClient) Close() {
	c.closed.Add(1)
}

func (c *MockClient) Closed() bool {
	return c.closed.Load() > 0
}
