package notify

import (
	"fmt"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// Lifecycle event messages delivered to the notification actor.
type OrderCreated struct {
	OrderID string
	UserID  string
	Total   float64
}

type OrderCancelled struct {
	OrderID string
	UserID  string
}

type OrderDeleted struct {
	OrderID string
	UserID  string
}

type notificationActor struct {
	logger *zap.Logger
}

func (a *notificationActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *OrderCreated:
		a.logger.Info("Order confirmation queued",
			zap.String("order_id", msg.OrderID),
			zap.String("user_id", msg.UserID),
			zap.Float64("total", msg.Total))

	case *OrderCancelled:
		a.logger.Info("Cancellation notice queued",
			zap.String("order_id", msg.OrderID),
			zap.String("user_id", msg.UserID))

	case *OrderDeleted:
		a.logger.Info("Deletion notice queued",
			zap.String("order_id", msg.OrderID),
			zap.String("user_id", msg.UserID))

	case *actor.Started:
		a.logger.Info("Notification actor started")

	case *actor.Stopped:
		a.logger.Info("Notification actor stopped")
	}
}

// Notifier delivers order lifecycle events to an in-process actor.
// Delivery is fire-and-forget: a lost notification never fails an order
// operation.
type Notifier struct {
	system *actor.ActorSystem
	pid    *actor.PID
}

func NewNotifier(logger *zap.Logger) (*Notifier, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return &notificationActor{logger: logger.Named("notification-actor")}
	})
	pid, err := system.Root.SpawnNamed(props, "order-notifications")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn notification actor: %w", err)
	}

	return &Notifier{system: system, pid: pid}, nil
}

func (n *Notifier) Send(msg interface{}) {
	n.system.Root.Send(n.pid, msg)
}

func (n *Notifier) Stop() {
	n.system.Root.Stop(n.pid)
}
