package events

import "errors"

var (
	// ErrEncode возвращается, когда событие не удалось сериализовать
	ErrEncode = errors.New("events: failed to encode event")

	// ErrPublish возвращается, когда брокер не принял событие
	ErrPublish = errors.New("events: failed to publish event")
)
