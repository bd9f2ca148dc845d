// Package pubsub exposes the three facades an application typically wants
// instead of talking to package queue directly: Environment, which factories
// a Publisher and Subscriber over one queue directory; Publisher, which
// sends a payload to every currently registered subscriber; and Subscriber,
// which polls one subscriber's inbox with a bounded retry/sleep loop.
package pubsub
