package service

// EventRecorder receives business events for metrics.
// *metrics.Metrics implements it.
type EventRecorder interface {
	AuthEvent(event, outcome string)
	PostEvent(event string)
}

// Event names shared with the metrics labels.
const (
	EventRegister = "register"
	EventLogin    = "login"

	EventPostCreate = "create"
	EventPostUpdate = "update"
	EventPostDelete = "delete"
	EventPostLike   = "like"
	EventPostUnlike = "unlike"
	EventComment    = "comment"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}
func (nopRecorder) PostEvent(string)         {}

func recorderOrNop(r EventRecorder) EventRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
