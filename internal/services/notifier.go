package services

// Notifier publishes record changes to live dashboard clients.
type Notifier interface {
	Publish(action string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
