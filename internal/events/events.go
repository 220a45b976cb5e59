// Package events publishes TestTable change events to subscribers.
package events

import (
	"context"
	"fmt"

	"github.com/deppfellow/testtable-service/internal/model/testtable"
)

const (
	TopicTestTableCreated = "testtable.created"
	TopicTestTableUpdated = "testtable.updated"
	TopicTestTableDeleted = "testtable.deleted"

	// TopicTestTableAll matches every TestTable topic.
	TopicTestTableAll = "testtable.>"
)

// TopicFor returns the subject a change of kind is published on.
func TopicFor(kind testtable.ChangeKind) (string, error) {
	switch kind {
	case testtable.ChangeCreated:
		return TopicTestTableCreated, nil
	case testtable.ChangeUpdated:
		return TopicTestTableUpdated, nil
	case testtable.ChangeDeleted:
		return TopicTestTableDeleted, nil
	default:
		return "", fmt.Errorf("unknown change kind %q", kind)
	}
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
