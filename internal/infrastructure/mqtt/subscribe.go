package mqtt

import (
	"fmt"
)

// Subscribe requests delivery of messages on topic. Messages arrive through
// the OnMessage handlers of current registrations.
//
// Subscriptions are not restored by this package after a reconnect; the
// caller resubscribes from its OnConnected handler.
func (c *Client) Subscribe(topic string, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}

	client := c.pahoClient()
	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}

	token := client.Subscribe(topic, qos, c.handleMessage)
	if !token.WaitTimeout(defaultOperationTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultOperationTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return nil
}

// Unsubscribe removes a subscription.
// Messages already queued for dispatch may still be delivered.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	client := c.pahoClient()
	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}

	token := client.Unsubscribe(topic)
	if !token.WaitTimeout(defaultOperationTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrUnsubscribeFailed, defaultOperationTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsubscribeFailed, err)
	}

	return nil
}
