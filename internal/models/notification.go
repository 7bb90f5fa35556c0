package models

type NotificationKind string

const (
	NotificationMotion NotificationKind = "motion"
	NotificationStatus NotificationKind = "status"
)

// NotificationEvent is the input of the dispatcher. Timestamp is kept raw so a
// malformed value can still be delivered with a substitute time.
type NotificationEvent struct {
	Kind             NotificationKind
	DeviceID         string
	UserEmail        string
	Timestamp        string
	MotionDetected   bool
	ConnectionStatus ConnectionStatus
}

// PushMessage is the composed message handed to the push gateway.
type PushMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}
