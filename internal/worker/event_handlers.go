package worker

import (
	"github.com/spec-kit/helpdesk-workflow/internal/events"
)

// HandlerRegistrar is implemented by services that listen to dispatcher events.
type HandlerRegistrar interface {
	RegisterHandlers(dispatcher events.Dispatcher)
}

// RegisterEventHandlers subscribes every service to the dispatcher.
func RegisterEventHandlers(dispatcher events.Dispatcher, services ...HandlerRegistrar) {
	if dispatcher == nil {
		return
	}
	for _, svc := range services {
		if svc != nil {
			svc.RegisterHandlers(dispatcher)
		}
	}
}
