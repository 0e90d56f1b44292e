package notification

import (
	"context"
	"strconv"
)

// Messenger delivers push notifications to a topic.
// Implemented by the Firebase FCM client in the infrastructure layer.
type Messenger interface {
	SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) error
}

// UserTopic is the topic every device of a user subscribes to.
func UserTopic(userID int64) string {
	return "user-" + strconv.FormatInt(userID, 10)
}
